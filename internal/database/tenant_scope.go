package database

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TenantScope is a per-request data-access handle bound to one tenant.
// Every query built through it carries the tenant predicate, so tenant
// isolation holds by construction rather than by convention. The raw
// *gorm.DB is deliberately not reachable from a scope; the only cross-tenant
// read path in the system is the matcher's indicator lookup, which takes the
// unscoped handle explicitly.
type TenantScope struct {
	db       *gorm.DB
	tenantID uuid.UUID
}

// NewTenantScope binds a database handle to a tenant
func NewTenantScope(db *gorm.DB, tenantID uuid.UUID) TenantScope {
	return TenantScope{db: db, tenantID: tenantID}
}

// TenantID returns the tenant the scope is bound to
func (s TenantScope) TenantID() uuid.UUID {
	return s.tenantID
}

// Query starts a query over the given model, always filtered to the tenant
func (s TenantScope) Query(model interface{}) *gorm.DB {
	return s.db.Model(model).Where("tenant_id = ?", s.tenantID)
}

// Create inserts a record that must already carry the scope's tenant ID
func (s TenantScope) Create(value interface{}) *gorm.DB {
	return s.db.Create(value)
}

// Save persists a record previously fetched through this scope
func (s TenantScope) Save(value interface{}) *gorm.DB {
	return s.db.Save(value)
}

// Transaction runs fn inside a database transaction with a scope bound to
// the same tenant.
func (s TenantScope) Transaction(fn func(tx TenantScope) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(TenantScope{db: tx, tenantID: s.tenantID})
	})
}

// Locked applies a row lock to a tenant-scoped query where supported
func (s TenantScope) Locked(model interface{}) *gorm.DB {
	return LockForUpdate(s.Query(model))
}
