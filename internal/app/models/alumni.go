package models

import (
	"time"
)

// ContactDetails holds how an alumnus can be reached
type ContactDetails struct {
	Email   string `json:"email" bson:"email"`
	Phone   string `json:"phone" bson:"phone"`
	Address string `json:"address" bson:"address"`
}

// QualifiedExams records a qualifying exam and its certificate
type QualifiedExams struct {
	ExamName       string `json:"examName" bson:"examName"`
	RollNumber     string `json:"rollNumber" bson:"rollNumber"`
	CertificateURL string `json:"certificateUrl" bson:"certificateUrl"`
}

// Employment records the current occupation of an alumnus
type Employment struct {
	Type                  string `json:"type" bson:"type"`
	EmployerName          string `json:"employerName" bson:"employerName"`
	EmployerContact       string `json:"employerContact" bson:"employerContact"`
	EmployerEmail         string `json:"employerEmail" bson:"employerEmail"`
	DocumentURL           string `json:"documentUrl" bson:"documentUrl"`
	SelfEmploymentDetails string `json:"selfEmploymentDetails" bson:"selfEmploymentDetails"`
}

// HigherEducation records further studies after graduation
type HigherEducation struct {
	InstitutionName string `json:"institutionName" bson:"institutionName"`
	ProgramName     string `json:"programName" bson:"programName"`
	DocumentURL     string `json:"documentUrl" bson:"documentUrl"`
}

// Alumni is an alumni record. Nested sections are always present so every
// record has the same shape, whichever sections the client supplied.
type Alumni struct {
	ID                 string          `json:"id" bson:"_id" example:"5f1c7c1e-3b43-4d38-9a36-1f1f3f1c2a10"`
	Name               string          `json:"name" bson:"name" example:"Jane Doe"`
	AcademicUnit       string          `json:"academicUnit" bson:"academicUnit" example:"School of Engineering"`
	Program            string          `json:"program" bson:"program" example:"B.Tech CS"`
	PassingYear        string          `json:"passingYear" bson:"passingYear" example:"2019-20"`
	RegistrationNumber string          `json:"registrationNumber" bson:"registrationNumber" example:"REG-001"`
	ContactDetails     ContactDetails  `json:"contactDetails" bson:"contactDetails"`
	QualifiedExams     QualifiedExams  `json:"qualifiedExams" bson:"qualifiedExams"`
	Employment         Employment      `json:"employment" bson:"employment"`
	HigherEducation    HigherEducation `json:"higherEducation" bson:"higherEducation"`
	CreatedBy          *int64          `json:"createdBy" bson:"createdBy"`
	CreatedAt          time.Time       `json:"createdAt" bson:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt" bson:"updatedAt"`
}

// AlumniFilter holds the listing/search criteria. Empty fields do not filter.
type AlumniFilter struct {
	AcademicUnit string // exact match
	PassingYear  string // exact match
	Program      string // case-insensitive substring
	Query        string // case-insensitive substring over name, registrationNumber, program
}

// AttachmentField names an upload slot of the alumni form
type AttachmentField string

const (
	AttachmentQualificationImage      AttachmentField = "qualificationImage"
	AttachmentEmploymentDocument      AttachmentField = "employmentDocument"
	AttachmentHigherEducationDocument AttachmentField = "higherEducationDocument"
)

// AttachmentFields lists every upload slot in form order
var AttachmentFields = []AttachmentField{
	AttachmentQualificationImage,
	AttachmentEmploymentDocument,
	AttachmentHigherEducationDocument,
}

// IsValid reports whether f is a known upload slot
func (f AttachmentField) IsValid() bool {
	for _, known := range AttachmentFields {
		if f == known {
			return true
		}
	}
	return false
}

// SetAttachmentURL stores url in the document field the attachment slot feeds
func (a *Alumni) SetAttachmentURL(field AttachmentField, url string) {
	switch field {
	case AttachmentQualificationImage:
		a.QualifiedExams.CertificateURL = url
	case AttachmentEmploymentDocument:
		a.Employment.DocumentURL = url
	case AttachmentHigherEducationDocument:
		a.HigherEducation.DocumentURL = url
	}
}

// AttachmentURL returns the URL currently stored for an attachment slot
func (a *Alumni) AttachmentURL(field AttachmentField) string {
	switch field {
	case AttachmentQualificationImage:
		return a.QualifiedExams.CertificateURL
	case AttachmentEmploymentDocument:
		return a.Employment.DocumentURL
	case AttachmentHigherEducationDocument:
		return a.HigherEducation.DocumentURL
	}
	return ""
}

// ContactDetailsPatch carries the leaves present in a request; nil means absent
type ContactDetailsPatch struct {
	Email   *string `json:"email"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
}

// QualifiedExamsPatch carries the leaves present in a request
type QualifiedExamsPatch struct {
	ExamName       *string `json:"examName"`
	RollNumber     *string `json:"rollNumber"`
	CertificateURL *string `json:"certificateUrl"`
}

// EmploymentPatch carries the leaves present in a request
type EmploymentPatch struct {
	Type                  *string `json:"type"`
	EmployerName          *string `json:"employerName"`
	EmployerContact       *string `json:"employerContact"`
	EmployerEmail         *string `json:"employerEmail"`
	DocumentURL           *string `json:"documentUrl"`
	SelfEmploymentDetails *string `json:"selfEmploymentDetails"`
}

// HigherEducationPatch carries the leaves present in a request
type HigherEducationPatch struct {
	InstitutionName *string `json:"institutionName"`
	ProgramName     *string `json:"programName"`
	DocumentURL     *string `json:"documentUrl"`
}

// AlumniPatch is a normalized create/update payload
type AlumniPatch struct {
	Name               *string
	AcademicUnit       *string
	Program            *string
	PassingYear        *string
	RegistrationNumber *string
	ContactDetails     *ContactDetailsPatch
	QualifiedExams     *QualifiedExamsPatch
	Employment         *EmploymentPatch
	HigherEducation    *HigherEducationPatch
}

func setIfPresent(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// ApplyTo overwrites the leaves of c present in p
func (p *ContactDetailsPatch) ApplyTo(c *ContactDetails) {
	if p == nil {
		return
	}
	setIfPresent(&c.Email, p.Email)
	setIfPresent(&c.Phone, p.Phone)
	setIfPresent(&c.Address, p.Address)
}

// ApplyTo overwrites the leaves of q present in p
func (p *QualifiedExamsPatch) ApplyTo(q *QualifiedExams) {
	if p == nil {
		return
	}
	setIfPresent(&q.ExamName, p.ExamName)
	setIfPresent(&q.RollNumber, p.RollNumber)
	setIfPresent(&q.CertificateURL, p.CertificateURL)
}

// ApplyTo overwrites the leaves of e present in p
func (p *EmploymentPatch) ApplyTo(e *Employment) {
	if p == nil {
		return
	}
	setIfPresent(&e.Type, p.Type)
	setIfPresent(&e.EmployerName, p.EmployerName)
	setIfPresent(&e.EmployerContact, p.EmployerContact)
	setIfPresent(&e.EmployerEmail, p.EmployerEmail)
	setIfPresent(&e.DocumentURL, p.DocumentURL)
	setIfPresent(&e.SelfEmploymentDetails, p.SelfEmploymentDetails)
}

// ApplyTo overwrites the leaves of h present in p
func (p *HigherEducationPatch) ApplyTo(h *HigherEducation) {
	if p == nil {
		return
	}
	setIfPresent(&h.InstitutionName, p.InstitutionName)
	setIfPresent(&h.ProgramName, p.ProgramName)
	setIfPresent(&h.DocumentURL, p.DocumentURL)
}

// Apply merges p into a leaf by leaf. Absent scalars and leaves keep their
// current value; nothing is ever cleared because it was omitted.
func (a *Alumni) Apply(p AlumniPatch) {
	setIfPresent(&a.Name, p.Name)
	setIfPresent(&a.AcademicUnit, p.AcademicUnit)
	setIfPresent(&a.Program, p.Program)
	setIfPresent(&a.PassingYear, p.PassingYear)
	setIfPresent(&a.RegistrationNumber, p.RegistrationNumber)

	p.ContactDetails.ApplyTo(&a.ContactDetails)
	p.QualifiedExams.ApplyTo(&a.QualifiedExams)
	p.Employment.ApplyTo(&a.Employment)
	p.HigherEducation.ApplyTo(&a.HigherEducation)
}
