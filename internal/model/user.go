package model

import "time"

// Role names stored in users.role and carried in the JWT "role" claim.
// USER is the default for self-registration; the three staff roles gate the
// approval surfaces of the reservation workflow.
const (
    RoleUser             = "USER"
    RoleAdmin            = "ADMIN"
    RolePaymentCollector = "PAYMENT_COLLECTOR"
    RoleMDRR             = "MDRR"

    // RoleSystem identifies non-interactive actors such as the completion
    // sweeper. It is never stored on a user row or issued in a token.
    RoleSystem = "SYSTEM"
)

// StaffRole reports whether the role belongs to one of the approval pools.
func StaffRole(role string) bool {
    return role == RoleAdmin || role == RolePaymentCollector || role == RoleMDRR
}

// User represents an application user record as stored in the `users`
// table. FullName and Phone are snapshotted onto bookings at creation time
// so reservations keep their original contact details.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  FullName     – display name used for booking snapshots.
//  Phone        – contact number used for booking snapshots.
//  Role         – one of the role constants above.
//  IsActive     – whether the account is active.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
    ID           uint64    // users.id
    Email        string    // users.email
    PasswordHash string    // users.password_hash
    FullName     string    // users.full_name
    Phone        string    // users.phone
    Role         string    // users.role
    IsActive     bool      // users.is_active
    CreatedAt    time.Time // users.created_at
    UpdatedAt    time.Time // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table. Each refresh
// token belongs to a user and contains metadata for expiry and revocation.
// The plain token is not stored; only its SHA-256 hash.
type RefreshToken struct {
    ID        uint64     // refresh_tokens.id
    UserID    uint64     // refresh_tokens.user_id
    TokenHash string     // refresh_tokens.token_hash
    ExpiresAt time.Time  // refresh_tokens.expires_at
    RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
    CreatedAt time.Time  // refresh_tokens.created_at
}
