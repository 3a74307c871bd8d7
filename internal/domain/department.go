package domain

import "strings"

// Department is the organizational unit recorded on an employee profile.
type Department string

const (
	DepartmentIT        Department = "IT"
	DepartmentHR        Department = "HR"
	DepartmentFinance   Department = "FIN"
	DepartmentMarketing Department = "MKT"
	DepartmentOps       Department = "OPS"
	DepartmentSales     Department = "SAL"
	DepartmentExec      Department = "EXEC"
)

var departmentLabels = map[Department]string{
	DepartmentIT:        "IT Support",
	DepartmentHR:        "Human Resources",
	DepartmentFinance:   "Finance",
	DepartmentMarketing: "Marketing",
	DepartmentOps:       "Operations",
	DepartmentSales:     "Sales",
	DepartmentExec:      "Management/Executive",
}

// ParseDepartment accepts either the code or its display label, case-insensitively.
func ParseDepartment(raw string) (Department, bool) {
	raw = strings.TrimSpace(raw)
	for code, label := range departmentLabels {
		if strings.EqualFold(raw, string(code)) || strings.EqualFold(raw, label) {
			return code, true
		}
	}
	return "", false
}

// Label returns the human readable department name.
func (d Department) Label() string {
	if label, ok := departmentLabels[d]; ok {
		return label
	}
	return string(d)
}
