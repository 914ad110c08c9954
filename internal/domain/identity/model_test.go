package identity

import "testing"

func TestParseRole(t *testing.T) {
	for _, s := range []string{"admin", "doctor", "nurse", "patient", "pharmacist", "labTechnician", "receptionist", "radiologist"} {
		r, err := ParseRole(s)
		if err != nil {
			t.Errorf("ParseRole(%q) failed: %v", s, err)
		}
		if r.String() != s {
			t.Errorf("round trip mismatch: %q != %q", r, s)
		}
	}
	if _, err := ParseRole("superadmin"); err == nil {
		t.Error("expected unknown role to fail parsing")
	}
	if _, err := ParseRole("Doctor"); err == nil {
		t.Error("role parsing must be case sensitive")
	}
}

func TestRolePrefix(t *testing.T) {
	cases := map[Role]string{
		RoleDoctor:        "DOC",
		RolePatient:       "PAT",
		RoleNurse:         "NUR",
		RoleAdmin:         "ADM",
		RoleLabTechnician: "LAB",
		RolePharmacist:    "PHA",
		RoleReceptionist:  "REC",
		RoleRadiologist:   "RAD",
		Role("other"):     "USR",
	}
	for role, want := range cases {
		if got := role.Prefix(); got != want {
			t.Errorf("%s.Prefix() = %s, want %s", role, got, want)
		}
	}
}

func TestInitialStatus(t *testing.T) {
	cases := []struct {
		role      Role
		requested string
		want      string
	}{
		{RolePatient, "", StatusActive},
		{RolePatient, StatusActive, StatusActive},
		{RolePatient, StatusInactive, StatusInactive},
		{RoleDoctor, StatusActive, StatusInactive},
		{RoleNurse, "", StatusInactive},
		{RoleAdmin, StatusActive, StatusInactive},
	}
	for _, tc := range cases {
		if got := initialStatus(tc.role, tc.requested); got != tc.want {
			t.Errorf("initialStatus(%s, %q) = %s, want %s", tc.role, tc.requested, got, tc.want)
		}
	}
}
