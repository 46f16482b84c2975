// Package validate checks user input before it is sent to the backend.
package validate

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"todo/internal/service"
)

//go:embed schemas/*.json
var schemaFS embed.FS

const (
	schemaTaskCreate = "task_create.json"
	schemaTaskUpdate = "task_update.json"
	schemaSignUp     = "signup.json"
	schemaSignIn     = "signin.json"
)

// FormField is the key for errors that belong to the input as a whole.
const FormField = "_"

// Field messages, keyed by the schema keyword that produced them.
var messages = map[string]string{
	"/properties/title/minLength":          "Title is required",
	"/properties/title/maxLength":          "Title too long",
	"/properties/description/maxLength":    "Description too long",
	"/properties/priority/enum":            "Invalid priority",
	"/properties/name/minLength":           "Name must be at least 2 characters",
	"/properties/email/format":             "Invalid email address",
	"/properties/password/minLength":       "Password must be at least 8 characters",
	"/properties/password/allOf/0/pattern": "Must contain at least one uppercase letter",
	"/properties/password/allOf/1/pattern": "Must contain at least one number",
	"/properties/password/allOf/2/pattern": "Must contain at least one special character",
	"/minProperties":                       "Nothing to update",
}

// Messages that do not come from a schema.
const (
	MsgPasswordRequired = "Password is required"
	MsgPasswordMismatch = "Passwords don't match"
	MsgTermsRequired    = "You must accept the terms and conditions"
)

// Errors maps a field name to its messages.
type Errors map[string][]string

func (e Errors) add(field, msg string) {
	for _, m := range e[field] {
		if m == msg {
			return
		}
	}
	e[field] = append(e[field], msg)
}

// Field returns the first message for field, or "".
func (e Errors) Field(field string) string {
	if msgs := e[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		msg := strings.Join(e[f], ", ")
		if f == FormField {
			parts = append(parts, msg)
			continue
		}
		parts = append(parts, f+": "+msg)
	}
	return strings.Join(parts, "; ")
}

func (e Errors) orNil() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

var (
	compileOnce sync.Once
	compiled    map[string]*jsonschema.Schema
	compileErr  error
)

func schemas() (map[string]*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.AssertFormat = true

		names := []string{schemaTaskCreate, schemaTaskUpdate, schemaSignUp, schemaSignIn}
		for _, name := range names {
			data, err := schemaFS.ReadFile("schemas/" + name)
			if err != nil {
				compileErr = fmt.Errorf("read schema %s: %w", name, err)
				return
			}
			if err := compiler.AddResource(name, bytes.NewReader(data)); err != nil {
				compileErr = fmt.Errorf("add schema %s: %w", name, err)
				return
			}
		}

		compiled = make(map[string]*jsonschema.Schema, len(names))
		for _, name := range names {
			s, err := compiler.Compile(name)
			if err != nil {
				compileErr = fmt.Errorf("compile schema %s: %w", name, err)
				return
			}
			compiled[name] = s
		}
	})
	return compiled, compileErr
}

// check validates v against the named schema and collects field messages
// into errs. Non-validation failures are returned as is.
func check(name string, v any, errs Errors) error {
	all, err := schemas()
	if err != nil {
		return err
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal input: %w", err)
	}
	var obj any
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("unmarshal input: %w", err)
	}

	if err := all[name].Validate(obj); err != nil {
		ve, ok := err.(*jsonschema.ValidationError)
		if !ok {
			return err
		}
		collect(ve, errs)
	}
	return nil
}

func collect(ve *jsonschema.ValidationError, errs Errors) {
	if len(ve.Causes) > 0 {
		for _, cause := range ve.Causes {
			collect(cause, errs)
		}
		return
	}
	errs.add(fieldOf(ve.InstanceLocation), messageFor(ve))
}

func fieldOf(instanceLocation string) string {
	field := strings.TrimPrefix(strings.TrimPrefix(instanceLocation, "#"), "/")
	if field == "" {
		return FormField
	}
	if i := strings.Index(field, "/"); i >= 0 {
		field = field[:i]
	}
	return field
}

func messageFor(ve *jsonschema.ValidationError) string {
	for suffix, msg := range messages {
		if strings.HasSuffix(ve.KeywordLocation, suffix) || strings.HasSuffix(ve.AbsoluteKeywordLocation, suffix) {
			return msg
		}
	}
	return ve.Message
}

// CreateTask validates a new task and fills in the default priority.
func CreateTask(in *service.CreateTaskInput) error {
	if in.Priority == "" {
		in.Priority = service.PriorityMedium
	}
	errs := Errors{}
	if err := check(schemaTaskCreate, in, errs); err != nil {
		return err
	}
	return errs.orNil()
}

// UpdateTask validates a partial task update. At least one field is required.
func UpdateTask(in service.UpdateTaskInput) error {
	errs := Errors{}
	if err := check(schemaTaskUpdate, in, errs); err != nil {
		return err
	}
	return errs.orNil()
}

// SignUp validates a registration form, including the confirmation and
// terms fields that never reach the backend.
func SignUp(in service.SignUpInput) error {
	errs := Errors{}
	form := map[string]string{
		"name":     in.Name,
		"email":    in.Email,
		"password": in.Password,
	}
	if err := check(schemaSignUp, form, errs); err != nil {
		return err
	}
	if in.Password != in.ConfirmPassword {
		errs.add("confirmPassword", MsgPasswordMismatch)
	}
	if !in.AcceptTerms {
		errs.add("terms", MsgTermsRequired)
	}
	return errs.orNil()
}

// SignIn validates a sign-in form.
func SignIn(in service.SignInInput) error {
	errs := Errors{}
	if err := check(schemaSignIn, in, errs); err != nil {
		return err
	}
	if msg := errs.Field("password"); msg != "" {
		errs["password"] = []string{MsgPasswordRequired}
	}
	return errs.orNil()
}
