package models

// ProvisionedAccount records a successfully created OS account. Purely an
// audit trail: the generated password is never stored.
type ProvisionedAccount struct {
	BaseModel

	Username     string `gorm:"index" json:"username"`
	StudentEmail string `json:"student_email"`
	StudentNo    string `json:"student_no"`
}
