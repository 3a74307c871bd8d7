package dto

// ProfileRequest replaces the caller's profile. Blank fields are cleared.
type ProfileRequest struct {
	EmployeeName string `json:"employee_name" validate:"max=100"`
	Department   string `json:"department" validate:"max=50"`
	PhoneNumber  string `json:"phone_number" validate:"max=20"`
	LaptopModel  string `json:"laptop_model" validate:"max=100"`
	LaptopSerial string `json:"laptop_serial" validate:"max=100"`
}

// ProfileResponse is the caller's profile.
type ProfileResponse struct {
	UserID          int64   `json:"user_id"`
	EmployeeName    *string `json:"employee_name"`
	Department      *string `json:"department"`
	DepartmentLabel *string `json:"department_label"`
	PhoneNumber     *string `json:"phone_number"`
	LaptopModel     *string `json:"laptop_model"`
	LaptopSerial    *string `json:"laptop_serial"`
}
