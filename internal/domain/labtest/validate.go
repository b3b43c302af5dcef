package labtest

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	domainagg "github.com/yungbote/labflow-backend/internal/domain/aggregates"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validator returns the shared validator with the identifier tags registered:
// request_id, atl_id and ymd_date.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("request_id", func(fl validator.FieldLevel) bool { return IsRequestID(fl.Field().String()) })
		_ = v.RegisterValidation("atl_id", func(fl validator.FieldLevel) bool { return IsAtlID(fl.Field().String()) })
		_ = v.RegisterValidation("ymd_date", func(fl validator.FieldLevel) bool { return IsDate(fl.Field().String()) })
		validate = v
	})
	return validate
}

// Validate checks a TestRequest before it is written.
func (r *TestRequest) Validate() error {
	const op = "labtest.validate"
	if err := Validator().Struct(r); err != nil {
		return domainagg.Validation(op, "%s", describe(err))
	}
	if len(r.SubTests) == 0 {
		return domainagg.Validation(op, "at least one sub-test is required")
	}
	if !r.Status.Valid() {
		return domainagg.Validation(op, "unknown status %q", r.Status)
	}
	materialOf := map[string]string{}
	keys := map[SubTestKey]bool{}
	for _, st := range r.SubTests {
		if m, ok := materialOf[st.AtlID]; ok && m != st.Material {
			return domainagg.Validation(op, "ATL id %s is used for materials %q and %q", st.AtlID, m, st.Material)
		}
		materialOf[st.AtlID] = st.Material
		k := SubTestKey{AtlID: st.AtlID, TestType: st.TestType, Material: st.Material}
		if keys[k] {
			return domainagg.Validation(op, "duplicate sub-test %s", k)
		}
		keys[k] = true
	}
	for _, d := range r.RequiredDepartments {
		if !d.Valid() {
			return domainagg.Validation(op, "unknown department %q", d)
		}
	}
	return nil
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "TestRequest.")
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "request_id":
			msgs = append(msgs, (&FormatError{Kind: "request id", Value: fmt.Sprint(fe.Value())}).Error())
		case "atl_id":
			msgs = append(msgs, (&FormatError{Kind: "ATL id", Value: fmt.Sprint(fe.Value())}).Error())
		case "ymd_date":
			msgs = append(msgs, field+": "+(&FormatError{Kind: "date", Value: fmt.Sprint(fe.Value())}).Error())
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}
