package sommelier

import (
	"fmt"

	"github.com/cellarwise/cellarwise-backend/pkg/enums"
)

const recommendationSystem = `You are an expert sommelier. Reply with a JSON object of the form
{"recommendations":[{"wineName":"","wineType":"","region":"","vintage":2019,"description":"","priceRange":"","abv":"","rating":4.5}]}
with exactly three real, purchasable wines that answer the user's request.`

const labelSystem = `You are a wine expert reading a wine label photo. Reply with a JSON object with the keys
wineName, wineType, region, vintage, optimalDrinkingStart, optimalDrinkingEnd, peakYearsStart,
peakYearsEnd (years as integers or null), analysis (two or three sentences), estimatedValue, abv,
and confidence (1-100).`

const mealSystem = `You are a sommelier pairing wine with food from a photo. Reply with a JSON object with the keys
dishes (array of strings), cuisine, description, recommendations (array of objects with wineName,
wineType, region, priceRange, reason) and confidence (1-100).`

const menuSystem = `You are a sommelier reading a restaurant wine list photo. Reply with a JSON object with the keys
answer, wines (array of objects with name, type, region, price, notes), recommendations (array of
objects with wineName, wineType, region, priceRange, reason) and confidence (1-100).`

func recommendationPrompt(query string) string {
	return fmt.Sprintf("Recommend wines for: %s", query)
}

func pairingPrompt(kind enums.PairingKind) string {
	if kind == enums.PairingKindMenu {
		return "This photo is a food menu. List the dishes and suggest wines that pair with the menu as a whole."
	}
	return "This photo is a plated meal. Identify the dishes and suggest wines that pair with them."
}

func menuPrompt(question string) string {
	if question == "" {
		return "Which wines on this list are the best value, and what would you order?"
	}
	return question
}
