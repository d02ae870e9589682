package handlers

import "github.com/go-playground/validator/v10"

// tagFailed reports whether any field in a validator error failed with the
// given tag. Used to map struct validation failures onto the API's fixed
// 400 messages instead of validator's own wording.
func tagFailed(err error, tag string) bool {
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return false
	}
	for _, fe := range errs {
		if fe.Tag() == tag {
			return true
		}
	}
	return false
}
