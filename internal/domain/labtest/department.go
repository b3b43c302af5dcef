package labtest

import "strings"

type Department string

const (
	DepartmentChemical   Department = "chemical"
	DepartmentMechanical Department = "mechanical"
)

func (d Department) Valid() bool {
	return d == DepartmentChemical || d == DepartmentMechanical
}

func ParseDepartment(s string) (Department, bool) {
	d := Department(strings.ToLower(strings.TrimSpace(s)))
	return d, d.Valid()
}

// DepartmentOf maps a department-prefixed test type ("Chemical - Cement")
// to its department. MECHANICAL-NDT counts as mechanical.
func DepartmentOf(testType string) (Department, bool) {
	prefix := strings.ToUpper(strings.TrimSpace(strings.SplitN(testType, "-", 2)[0]))
	switch prefix {
	case "CHEMICAL":
		return DepartmentChemical, true
	case "MECHANICAL":
		return DepartmentMechanical, true
	default:
		return "", false
	}
}

// DepartmentsFor returns the distinct departments of subTests in first-seen order.
func DepartmentsFor(subTests []SubTest) []Department {
	seen := map[Department]bool{}
	var out []Department
	for _, st := range subTests {
		d, ok := st.Department()
		if !ok || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return out
}
