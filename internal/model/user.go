package model

// Roles carried in access tokens.  ADMIN callers are privileged and
// may see every reservation and ticket.
const (
    RoleCustomer = "CUSTOMER"
    RoleAdmin    = "ADMIN"
)

// User is the subset of the `users` table the reservation service
// reads.  Accounts are managed elsewhere; the service only needs the
// email for reservation listings.
type User struct {
    ID    int64  // users.id
    Email string // users.email
    Role  string // users.role
}
