package domain

// Profile holds the per-user metadata copied onto incidents at creation time.
type Profile struct {
	UserID       int64
	EmployeeName *string
	Department   *Department
	PhoneNumber  *string
	LaptopModel  *string
	LaptopSerial *string
}

// AssetSnapshot is the frozen hardware/department context of an incident.
type AssetSnapshot struct {
	Department   *string
	LaptopModel  *string
	LaptopSerial *string
}

// Snapshot returns copies of the profile fields so later profile edits never leak into incidents.
// A nil profile yields an empty snapshot.
func (p *Profile) Snapshot() AssetSnapshot {
	if p == nil {
		return AssetSnapshot{}
	}
	var snap AssetSnapshot
	if p.Department != nil {
		dept := string(*p.Department)
		snap.Department = &dept
	}
	snap.LaptopModel = cloneString(p.LaptopModel)
	snap.LaptopSerial = cloneString(p.LaptopSerial)
	return snap
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
