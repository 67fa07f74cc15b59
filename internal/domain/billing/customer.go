package billing

import (
	"context"
	"strings"
)

// Patient is a cash customer
type Patient struct {
	ID            int64  `json:"id"`
	FirstName     string `json:"first_name"`
	SecondName    string `json:"second_name"`
	Phone         string `json:"phone,omitempty"`
	PatientNumber string `json:"patient_number,omitempty"`
}

// FullName joins the patient's names
func (p Patient) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.SecondName)
}

// InsuranceCompany is a credit customer
type InsuranceCompany struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// CustomerDirectory lists the customers a payment can be taken from
type CustomerDirectory interface {
	Patients(ctx context.Context) ([]Patient, error)
	InsuranceCompanies(ctx context.Context) ([]InsuranceCompany, error)
}
