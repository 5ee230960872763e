// internal/domain/models/patch.go
package models

// ProfilePatch is a partial update of user-editable profile fields.
// A nil field is left unchanged. Email and auth metadata are not editable.
type ProfilePatch struct {
	FullName       *string
	PhoneNumber    *string
	ProfilePicture *string
}

// IsEmpty reports whether the patch would change nothing.
func (p ProfilePatch) IsEmpty() bool {
	return p.FullName == nil && p.PhoneNumber == nil && p.ProfilePicture == nil
}

// SocialRefresh carries provider-supplied values applied on social re-login.
// Empty strings mean "provider omitted this" and never overwrite stored data.
type SocialRefresh struct {
	FullName       string
	ProfilePicture string
	ProviderUserID string
}

// Fields lists the bson names of the fields the patch sets.
func (p ProfilePatch) Fields() []string {
	var out []string
	if p.FullName != nil {
		out = append(out, "full_name")
	}
	if p.PhoneNumber != nil {
		out = append(out, "phone_number")
	}
	if p.ProfilePicture != nil {
		out = append(out, "profile_picture")
	}
	return out
}
