// file: internals/features/finance/fee_structures/model/fee_structure_commands.go
package model

// Commands over the classes document. Each returns a new slice and leaves the
// input untouched; unchanged classes are shared with the input.

// WithClass appends an empty class. ok=false when the name is already taken.
func WithClass(classes []FeeClass, className string) (out []FeeClass, ok bool) {
	className = NormalizeName(className)
	for _, c := range classes {
		if SameName(c.Name, className) {
			return classes, false
		}
	}
	out = make([]FeeClass, 0, len(classes)+1)
	out = append(out, classes...)
	out = append(out, FeeClass{Name: className, StudentTypes: []StudentTypeFee{}})
	return out, true
}

// WithStudentType replaces the fee amounts of an entry with the same (name, medium)
// or appends a new one. ok=false when the class does not exist.
func WithStudentType(classes []FeeClass, className string, st StudentTypeFee) (out []FeeClass, ok bool) {
	idx := indexOfClass(classes, className)
	if idx < 0 {
		return classes, false
	}
	st.Name = NormalizeName(st.Name)
	st = st.clone()

	old := classes[idx]
	types := make([]StudentTypeFee, 0, len(old.StudentTypes)+1)
	replaced := false
	for _, t := range old.StudentTypes {
		if !replaced && t.Matches(st.Name, st.SemiEnglish) {
			t.FeeAmounts = st.FeeAmounts
			replaced = true
		}
		types = append(types, t)
	}
	if !replaced {
		types = append(types, st)
	}

	out = make([]FeeClass, len(classes))
	copy(out, classes)
	out[idx] = FeeClass{Name: old.Name, StudentTypes: types}
	return out, true
}

// WithoutClass drops a class. changed=false when it was absent.
func WithoutClass(classes []FeeClass, className string) (out []FeeClass, changed bool) {
	idx := indexOfClass(classes, className)
	if idx < 0 {
		return classes, false
	}
	out = make([]FeeClass, 0, len(classes)-1)
	out = append(out, classes[:idx]...)
	out = append(out, classes[idx+1:]...)
	return out, true
}

// WithoutStudentType drops one (name, medium) entry of a class.
func WithoutStudentType(classes []FeeClass, className, typeName string, semiEnglish bool) (out []FeeClass, changed bool) {
	idx := indexOfClass(classes, className)
	if idx < 0 {
		return classes, false
	}
	old := classes[idx]
	types := make([]StudentTypeFee, 0, len(old.StudentTypes))
	for _, t := range old.StudentTypes {
		if t.Matches(typeName, semiEnglish) {
			changed = true
			continue
		}
		types = append(types, t)
	}
	if !changed {
		return classes, false
	}
	out = make([]FeeClass, len(classes))
	copy(out, classes)
	out[idx] = FeeClass{Name: old.Name, StudentTypes: types}
	return out, true
}

func indexOfClass(classes []FeeClass, name string) int {
	for i, c := range classes {
		if SameName(c.Name, name) {
			return i
		}
	}
	return -1
}
