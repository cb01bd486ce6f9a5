package merchant

import (
	"time"
)

// DocumentType classifies an uploaded KYB document.
type DocumentType string

const (
	DocRegistrationCertificate DocumentType = "REGISTRATION_CERTIFICATE"
	DocTaxCertificate          DocumentType = "TAX_CERTIFICATE"
	DocDirectorID              DocumentType = "DIRECTOR_ID"
	DocProofOfAddress          DocumentType = "PROOF_OF_ADDRESS"
	DocBankStatement           DocumentType = "BANK_STATEMENT"
	DocOther                   DocumentType = "OTHER"
)

var documentTypes = map[DocumentType]struct{}{
	DocRegistrationCertificate: {},
	DocTaxCertificate:          {},
	DocDirectorID:              {},
	DocProofOfAddress:          {},
	DocBankStatement:           {},
	DocOther:                   {},
}

// Valid reports whether t is a known document type.
func (t DocumentType) Valid() bool {
	_, ok := documentTypes[t]
	return ok
}

// Document is an uploaded KYB document.
type Document struct {
	ID         string       `json:"id"`
	MerchantID string       `json:"merchantId"`
	Type       DocumentType `json:"documentType"`
	FileName   string       `json:"fileName"`
	MimeType   string       `json:"mimeType,omitempty"`
	SizeBytes  int64        `json:"sizeBytes,omitempty"`
	Status     string       `json:"status,omitempty"`
	UploadedAt time.Time    `json:"uploadedAt"`
}

// KYBStatus is returned by GET /merchant/v1/merchants/{id}/kyb/status.
type KYBStatus struct {
	MerchantID      string     `json:"merchantId"`
	KYCStatus       KYCStatus  `json:"kycStatus"`
	DocumentCount   int        `json:"documentCount"`
	SubmittedAt     *time.Time `json:"submittedAt,omitempty"`
	ReviewedAt      *time.Time `json:"reviewedAt,omitempty"`
	RejectionReason string     `json:"rejectionReason,omitempty"`
}

// Submission is an entry of the admin KYB review queue.
type Submission struct {
	MerchantID    string     `json:"merchantId"`
	BusinessName  string     `json:"businessName"`
	Country       string     `json:"country"`
	KYCStatus     KYCStatus  `json:"kycStatus"`
	DocumentCount int        `json:"documentCount"`
	Documents     []Document `json:"documents,omitempty"`
	SubmittedAt   time.Time  `json:"submittedAt"`
}

// ReviewInput is the body of the admin approve/reject and suspend calls.
type ReviewInput struct {
	Reason string `json:"reason,omitempty"`
	Notes  string `json:"notes,omitempty"`
}

// CheckSubmit enforces the console's submit rule: at least one document.
func CheckSubmit(documentCount int) error {
	if documentCount <= 0 {
		return ErrNoDocuments
	}
	return nil
}

// ProductionStatus is returned by GET .../production/status.
type ProductionStatus struct {
	MerchantID      string          `json:"merchantId"`
	ProductionState ProductionState `json:"productionState"`
	RequestedAt     *time.Time      `json:"requestedAt,omitempty"`
	ApprovedAt      *time.Time      `json:"approvedAt,omitempty"`
	Reason          string          `json:"reason,omitempty"`
}

// ProductionRequest is the body of POST .../production/request.
type ProductionRequest struct {
	ExpectedMonthlyVolume string `json:"expectedMonthlyVolume,omitempty"`
	UseCase               string `json:"useCase,omitempty"`
}
