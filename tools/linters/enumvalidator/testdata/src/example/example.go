package example

type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

type ErrorCode string

const (
	ErrorCodeMissingUserID ErrorCode = "MISSING_USER_ID"
	ErrorCodeSystemError   ErrorCode = "SYSTEM_ERROR"
)

type RequestKind string

const (
	RequestKindCommand RequestKind = "command"
	RequestKindEvent   RequestKind = "event"
)

type Membership struct {
	Role Role
}

type AuthError struct {
	Code ErrorCode
}

func bad() {
	m := &Membership{}
	m.Role = "superuser" // want "enum field Role assigned string literal"

	e := &AuthError{}
	e.Code = "OOPS" // want "enum field Code assigned string literal"

	_ = AuthError{Code: "OOPS"} // want "enum field Code assigned string literal"
}

func good() {
	m := &Membership{}
	m.Role = RoleAdmin

	e := AuthError{Code: ErrorCodeSystemError}
	_ = e

	role := RoleOwner
	_ = &Membership{Role: role}
}

func label(r Role) string {
	switch r { // want "switch on Role is missing RoleMember; add the cases or a default"
	case RoleOwner:
		return "owner"
	case RoleAdmin:
		return "admin"
	}
	return ""
}

func exhaustive(r Role) string {
	switch r {
	case RoleOwner, RoleAdmin:
		return "manager"
	case RoleMember:
		return "member"
	}
	return ""
}

func withDefault(k RequestKind) bool {
	switch k {
	case RequestKindCommand:
		return true
	default:
		return false
	}
}

func status(code ErrorCode) int {
	switch code { // want "switch on ErrorCode is missing ErrorCodeMissingUserID, ErrorCodeSystemError; add the cases or a default"
	}
	return 0
}

func untagged(code ErrorCode) bool {
	switch {
	case code == ErrorCodeSystemError:
		return true
	}
	return false
}
