package schoolGuard

// SchoolCatalog returns the sample role table used when no catalog is
// supplied. Permissions use resource.action form.
func SchoolCatalog() map[string][]string {
	return map[string][]string{
		string(RoleAdmin): {
			"students.read", "students.write", "students.delete",
			"classrooms.read", "classrooms.write",
			"subjects.read", "subjects.write",
			"timetables.read", "timetables.write",
			"fees.read", "fees.write",
			"users.read", "users.write", "users.unlock",
			"tokens.revoke",
			"audit.read",
		},
		string(RoleTeacher): {
			"students.read",
			"classrooms.read",
			"subjects.read",
			"timetables.read",
			"attendance.read", "attendance.write",
			"grades.read", "grades.write",
		},
		string(RoleParent): {
			"students.read",
			"timetables.read",
			"fees.read",
			"grades.read",
		},
	}
}
