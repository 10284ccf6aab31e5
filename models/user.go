package models

// User holds the structure for the user collection in mongo. The same
// collection stores both clients and service providers, discriminated
// by the role field.
type User struct {
	ID      string      `json:"_id" bson:"_id"`
	Details UserDetails `json:"user" bson:"user"`
	Version int32       `json:"__v" bson:"__v"`
}

// UserDetails holds the structure for the inner user structure as defined in the user collection in mongo
type UserDetails struct {
	Email       string      `json:"email" bson:"email"`
	Name        string      `json:"name" bson:"name"`
	Phone       string      `json:"phone" bson:"phone"`
	Role        string      `json:"role" bson:"role"` // "client" or "service"
	County      string      `json:"county" bson:"county"`
	City        string      `json:"city" bson:"city"`
	CompanyName string      `json:"companyName" bson:"companyName"` // service providers only
	Password    string      `json:"password" bson:"password"`
	CreatedAt   interface{} `json:"createdAt" bson:"createdAt"`
	UpdatedAt   interface{} `json:"updatedAt" bson:"updatedAt"`
}

// Role values stored in the user collection and carried on websocket
// identifications and push tokens.
const (
	RoleClient  = "client"
	RoleService = "service"
)
