package domain

import (
	"errors"
	"fmt"
)

// ErrUnknownTenant is returned when a tenant id has no registered schema.
var ErrUnknownTenant = errors.New("unknown tenant")

// DataSourceError wraps any connection or query failure against a tenant
// store. The request that hit it is terminal; nothing retries.
type DataSourceError struct {
	Tenant string
	Op     string
	Err    error
}

func (e *DataSourceError) Error() string {
	return fmt.Sprintf("datasource %s: %s: %v", e.Tenant, e.Op, e.Err)
}

func (e *DataSourceError) Unwrap() error { return e.Err }

// ComputationError signals a field missing during aggregation. It should not
// happen while the schema registry holds its contract.
type ComputationError struct {
	Tenant string
	Field  string
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("computation %s: missing field %s", e.Tenant, e.Field)
}
