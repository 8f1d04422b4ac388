package registration

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/devnest/devnest/core"
)

// Columns
const (
	ColSubmittedAt       = "submittedAt"
	ColFullName          = "fullName"
	ColRollNumber        = "rollNumber"
	ColDepartment        = "department"
	ColWhatsappNumber    = "whatsappNumber"
	ColEmail             = "email"
	ColTeamName          = "teamName"
	ColTeamSize          = "teamSize"
	ColParticipant2      = "participant2"
	ColParticipant2Roll  = "participant2Roll"
	ColParticipant3      = "participant3"
	ColParticipant3Roll  = "participant3Roll"
	ColParticipant4      = "participant4"
	ColParticipant4Roll  = "participant4Roll"
	ColParticipationType = "participationType"
	ColTeamMember2       = "teamMember2"
	ColTeamMember2Roll   = "teamMember2Roll"
	ColTransactionID     = "transactionId"
	ColNotes             = "notes"
	ColPaymentProofFile  = "paymentProofFile"
	ColPaymentProofType  = "paymentProofType"

	// FieldPaymentProof is the payload field carrying the base64 upload.
	FieldPaymentProof = "paymentProofBase64"

	ParticipationIndividual = "individual"
	ParticipationTeam       = "team"
)

var ErrEventNotFound = errors.New("event not found")

type (
	// Repository is the backing store of one event's submissions.
	Repository interface {
		// FindConflicts returns the normalized candidates that are already registered,
		// in order of first detection. Blank candidates are ignored.
		FindConflicts(ctx context.Context, rolls []string) ([]string, error)
		// Append stores rec after every existing record.
		Append(ctx context.Context, rec Record) error
		// List returns every stored record in receipt order.
		List(ctx context.Context) ([]Record, error)
	}

	// Notifier is told about every stored submission. Implementations must not block.
	Notifier interface {
		SubmissionStored(schema *EventSchema, rec Record)
	}
)

// Record is one stored registration. It is never modified once appended.
type Record struct {
	SubmittedAt       string      `json:"submittedAt"`
	FullName          string      `json:"fullName"`
	RollNumber        string      `json:"rollNumber"`
	Department        string      `json:"department"`
	WhatsappNumber    string      `json:"whatsappNumber"`
	Email             string      `json:"email"`
	TeamName          string      `json:"teamName,omitempty"`
	TeamSize          string      `json:"teamSize,omitempty"`
	Participant2      string      `json:"participant2,omitempty"`
	Participant2Roll  string      `json:"participant2Roll,omitempty"`
	Participant3      string      `json:"participant3,omitempty"`
	Participant3Roll  string      `json:"participant3Roll,omitempty"`
	Participant4      string      `json:"participant4,omitempty"`
	Participant4Roll  string      `json:"participant4Roll,omitempty"`
	ParticipationType string      `json:"participationType,omitempty"`
	TeamMember2       string      `json:"teamMember2,omitempty"`
	TeamMember2Roll   string      `json:"teamMember2Roll,omitempty"`
	TransactionID     string      `json:"transactionId,omitempty"`
	Notes             string      `json:"notes"`
	PaymentProofFile  null.String `json:"paymentProofFile"`
	PaymentProofType  null.String `json:"paymentProofType"`
}

func (r *Record) textColumns() map[string]*string {
	return map[string]*string{
		ColSubmittedAt:       &r.SubmittedAt,
		ColFullName:          &r.FullName,
		ColRollNumber:        &r.RollNumber,
		ColDepartment:        &r.Department,
		ColWhatsappNumber:    &r.WhatsappNumber,
		ColEmail:             &r.Email,
		ColTeamName:          &r.TeamName,
		ColTeamSize:          &r.TeamSize,
		ColParticipant2:      &r.Participant2,
		ColParticipant2Roll:  &r.Participant2Roll,
		ColParticipant3:      &r.Participant3,
		ColParticipant3Roll:  &r.Participant3Roll,
		ColParticipant4:      &r.Participant4,
		ColParticipant4Roll:  &r.Participant4Roll,
		ColParticipationType: &r.ParticipationType,
		ColTeamMember2:       &r.TeamMember2,
		ColTeamMember2Roll:   &r.TeamMember2Roll,
		ColTransactionID:     &r.TransactionID,
		ColNotes:             &r.Notes,
	}
}

// Value returns the column's value; null and unknown columns are "".
func (r Record) Value(col string) string {
	switch col {
	case ColPaymentProofFile:
		return r.PaymentProofFile.String
	case ColPaymentProofType:
		return r.PaymentProofType.String
	}
	if p, ok := r.textColumns()[col]; ok {
		return *p
	}
	return ""
}

// SetValue sets a column from its serialized form. Empty upload columns become null.
func (r *Record) SetValue(col, val string) {
	switch col {
	case ColPaymentProofFile:
		r.PaymentProofFile = null.NewString(val, val != "")
		return
	case ColPaymentProofType:
		r.PaymentProofType = null.NewString(val, val != "")
		return
	}
	if p, ok := r.textColumns()[col]; ok {
		*p = val
	}
}

// Values returns the record's values in cols order.
func (r Record) Values(cols []string) []string {
	vals := make([]string, len(cols))
	for i, col := range cols {
		vals[i] = r.Value(col)
	}
	return vals
}

// RecordFromValues is the inverse of Record.Values. Missing trailing values are left empty.
func RecordFromValues(cols, vals []string) Record {
	var rec Record
	for i, col := range cols {
		if i >= len(vals) {
			break
		}
		rec.SetValue(col, vals[i])
	}
	return rec
}

// Submission is a registration payload as posted by the site's forms.
type Submission struct {
	FullName          string `json:"fullName"`
	RollNumber        string `json:"rollNumber"`
	Department        string `json:"department"`
	WhatsappNumber    string `json:"whatsappNumber" validate:"omitempty,phone"`
	Email             string `json:"email" validate:"omitempty,email"`
	TeamName          string `json:"teamName"`
	TeamSize          string `json:"teamSize" validate:"omitempty,oneof=2 3 4"`
	Participant2      string `json:"participant2"`
	Participant2Roll  string `json:"participant2Roll"`
	Participant3      string `json:"participant3"`
	Participant3Roll  string `json:"participant3Roll"`
	Participant4      string `json:"participant4"`
	Participant4Roll  string `json:"participant4Roll"`
	ParticipationType string `json:"participationType" validate:"omitempty,oneof=individual team"`
	TeamMember2       string `json:"teamMember2"`
	TeamMember2Roll   string `json:"teamMember2Roll"`
	TransactionID     string `json:"transactionId"`
	Notes             string `json:"notes"`

	PaymentProofBase64 string `json:"paymentProofBase64"`
	PaymentProofName   string `json:"paymentProofName"`
	PaymentProofType   string `json:"paymentProofType"`
}

func (s *Submission) fields() map[string]*string {
	return map[string]*string{
		ColFullName:          &s.FullName,
		ColRollNumber:        &s.RollNumber,
		ColDepartment:        &s.Department,
		ColWhatsappNumber:    &s.WhatsappNumber,
		ColEmail:             &s.Email,
		ColTeamName:          &s.TeamName,
		ColTeamSize:          &s.TeamSize,
		ColParticipant2:      &s.Participant2,
		ColParticipant2Roll:  &s.Participant2Roll,
		ColParticipant3:      &s.Participant3,
		ColParticipant3Roll:  &s.Participant3Roll,
		ColParticipant4:      &s.Participant4,
		ColParticipant4Roll:  &s.Participant4Roll,
		ColParticipationType: &s.ParticipationType,
		ColTeamMember2:       &s.TeamMember2,
		ColTeamMember2Roll:   &s.TeamMember2Roll,
		ColTransactionID:     &s.TransactionID,
		ColNotes:             &s.Notes,
		FieldPaymentProof:    &s.PaymentProofBase64,
	}
}

// Value returns the payload value of field, "" when unknown.
func (s *Submission) Value(field string) string {
	if p, ok := s.fields()[field]; ok {
		return *p
	}
	return ""
}

// Clean trims every field and lowers the email. The upload payload is left untouched.
func (s *Submission) Clean() {
	for field, p := range s.fields() {
		switch field {
		case FieldPaymentProof:
		case ColEmail:
			*p = core.CleanString(*p, true /* lower */)
		default:
			*p = core.CleanString(*p)
		}
	}
	s.PaymentProofName = core.CleanString(s.PaymentProofName)
	s.PaymentProofType = core.CleanString(s.PaymentProofType, true /* lower */)
}

// MissingFields lists the required fields of schema that are empty in s, in schema order,
// followed by the fields the schema's team and upload rules make required.
func (s *Submission) MissingFields(schema *EventSchema) []string {
	var missing []string
	check := func(fields ...string) {
		for _, f := range fields {
			if s.Value(f) == "" {
				missing = append(missing, f)
			}
		}
	}

	check(schema.Required...)

	switch schema.Team {
	case TeamBySize:
		if n, err := strconv.Atoi(s.TeamSize); err == nil {
			if n >= 3 {
				check(ColParticipant3, ColParticipant3Roll)
			}
			if n >= 4 {
				check(ColParticipant4, ColParticipant4Roll)
			}
		}
	case TeamByParticipation:
		if s.ParticipationType == ParticipationTeam {
			check(ColTeamName, ColTeamMember2, ColTeamMember2Roll)
		}
	}

	if schema.Upload == UploadRequired {
		check(FieldPaymentProof)
	}
	return dedupe(missing)
}

// Validate cleans s then checks it against schema.
// Missing fields are reported before any format error.
func (s *Submission) Validate(validate *validator.Validate, schema *EventSchema) error {
	s.Clean()

	if missing := s.MissingFields(schema); len(missing) > 0 {
		flds := make([]core.FieldError, 0, len(missing))
		for _, f := range missing {
			flds = append(flds, core.FieldError{Field: f, Error: core.RequiredText})
		}
		return core.NewValidationError(errors.Errorf("Missing required fields: %s", strings.Join(missing, ", ")), flds...)
	}

	if err := validate.Struct(s); err != nil {
		return err
	}

	if schema.phoneRegex != nil && s.WhatsappNumber != "" && !schema.phoneRegex.MatchString(s.WhatsappNumber) {
		return core.NewValidationError(
			errors.New("Invalid fields: whatsappNumber"),
			core.FieldError{Field: ColWhatsappNumber, Error: "enter a valid phone number"},
		)
	}
	return nil
}

// Rolls returns the non-empty roll-bearing values of s for schema.
func (s *Submission) Rolls(schema *EventSchema) []string {
	return participantRolls(schema, s.ParticipationType, s.Value)
}

// Rolls returns the non-empty roll-bearing values of r for schema, following the
// same participation rule as Submission.Rolls.
func (r Record) Rolls(schema *EventSchema) []string {
	return participantRolls(schema, r.ParticipationType, r.Value)
}

// participantRolls collects the roll fields of schema through value.
// An individual participant's team member roll is ignored.
func participantRolls(schema *EventSchema, participation string, value func(string) string) []string {
	rolls := make([]string, 0, len(schema.RollFields))
	for _, f := range schema.RollFields {
		if f == ColTeamMember2Roll && schema.Team == TeamByParticipation && participation != ParticipationTeam {
			continue
		}
		if v := value(f); v != "" {
			rolls = append(rolls, v)
		}
	}
	return rolls
}

// Record builds the record to store. Absent optionals are "".
func (s *Submission) Record(submittedAt time.Time, upload Upload) Record {
	rec := Record{SubmittedAt: submittedAt.UTC().Format(time.RFC3339Nano)}
	for field, p := range s.fields() {
		if field == FieldPaymentProof {
			continue
		}
		rec.SetValue(field, *p)
	}
	rec.PaymentProofFile = upload.StoredPath
	rec.PaymentProofType = upload.MimeType
	return rec
}

func dedupe(fields []string) []string {
	seen := make(map[string]bool, len(fields))
	out := fields[:0]
	for _, f := range fields {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out
}
