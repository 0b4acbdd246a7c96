package models

import (
	"time"

	"github.com/google/uuid"
)

// BankAccountModel is the read-only view of the bank-account catalog
type BankAccountModel struct {
	BaseModel
	BankID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Name     string    `gorm:"type:varchar(200);not null"`
	Number   string    `gorm:"type:varchar(50)"`
	Currency string    `gorm:"type:varchar(3);not null;default:'ARS'"`
	Active   bool      `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (BankAccountModel) TableName() string {
	return "bank_accounts"
}

// PartnerModel holds the columns shared by customers and suppliers
type PartnerModel struct {
	BaseModel
	Code   string `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name   string `gorm:"type:varchar(200);not null"`
	Active bool   `gorm:"not null;default:true"`
}

// CustomerModel is the read-only view of a customer
type CustomerModel struct {
	PartnerModel
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// SupplierModel is the read-only view of a supplier
type SupplierModel struct {
	PartnerModel
}

// TableName returns the table name for GORM
func (SupplierModel) TableName() string {
	return "suppliers"
}

// AuditLogModel is one line of the back-office audit log
type AuditLogModel struct {
	ID          uuid.UUID  `gorm:"type:uuid;primary_key"`
	ActorID     *uuid.UUID `gorm:"type:uuid;index"`
	Actor       string     `gorm:"type:varchar(100);not null"`
	Module      string     `gorm:"type:varchar(50);not null;index:idx_audit_module_time,priority:1"`
	Action      string     `gorm:"type:varchar(50);not null"`
	Description string     `gorm:"type:text"`
	OccurredAt  time.Time  `gorm:"not null;index:idx_audit_module_time,priority:2"`
}

// TableName returns the table name for GORM
func (AuditLogModel) TableName() string {
	return "audit_logs"
}

// ReferenceModels lists the tables owned by neighbouring modules that the
// treasury reads or appends to.
func ReferenceModels() []any {
	return []any{
		&BankAccountModel{},
		&CustomerModel{},
		&SupplierModel{},
		&AuditLogModel{},
	}
}
