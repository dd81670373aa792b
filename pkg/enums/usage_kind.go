package enums

// UsageKind names a per-user counter guarded by the plan ceiling.
type UsageKind string

const (
	UsageKindSaved    UsageKind = "saved"
	UsageKindUploaded UsageKind = "uploaded"
)

func (k UsageKind) String() string {
	return string(k)
}

func (k UsageKind) IsValid() bool {
	return k == UsageKindSaved || k == UsageKindUploaded
}
