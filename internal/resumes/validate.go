package resumes

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// reservedIDs are resume path segments taken by fixed routes; a record with
// one of these ids could not be addressed by its own URL.
var reservedIDs = map[string]bool{
	"state":      true,
	"delete-all": true,
	"error":      true,
}

// Validate checks r before it is written to the record store.
func Validate(r Resume) error {
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidInput)
	}
	if reservedIDs[strings.ToLower(strings.TrimSpace(r.ID))] {
		return fmt.Errorf("%w: id %q is reserved", ErrInvalidInput, r.ID)
	}
	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Namespace()+" "+fe.Tag())
			}
			return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}
