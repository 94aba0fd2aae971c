package domain

// BloodGroup identifies one of the eight fixed inventory partitions. It is
// the ledger's partition key: operations on different groups never contend.
type BloodGroup string

const (
	APositive  BloodGroup = "A+"
	ANegative  BloodGroup = "A-"
	BPositive  BloodGroup = "B+"
	BNegative  BloodGroup = "B-"
	ABPositive BloodGroup = "AB+"
	ABNegative BloodGroup = "AB-"
	OPositive  BloodGroup = "O+"
	ONegative  BloodGroup = "O-"
)

// AllBloodGroups lists every partition in display order.
var AllBloodGroups = []BloodGroup{
	APositive, ANegative,
	BPositive, BNegative,
	ABPositive, ABNegative,
	OPositive, ONegative,
}

// ParseBloodGroup validates a raw string against the closed enumeration.
func ParseBloodGroup(s string) (BloodGroup, error) {
	g := BloodGroup(s)
	if !g.IsValid() {
		return "", ErrUnknownBloodGroup
	}
	return g, nil
}

// IsValid checks if the blood group is one of the eight supported partitions.
func (g BloodGroup) IsValid() bool {
	switch g {
	case APositive, ANegative, BPositive, BNegative,
		ABPositive, ABNegative, OPositive, ONegative:
		return true
	}
	return false
}

// String returns the display form, e.g. "O+".
func (g BloodGroup) String() string {
	return string(g)
}
