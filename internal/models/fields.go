package models

// ImportField describes one column of the bulk user import CSV schema.
type ImportField struct {
	Name        string `json:"name"`
	Required    bool   `json:"required"`
	Description string `json:"description"`
}

// RequiredFields are the CSV columns every upload must carry.
var RequiredFields = []string{"email", "first_name", "last_name"}

// OptionalFields are recognized but may be omitted.
var OptionalFields = []string{"role"}

// DefaultRole is assigned when the role column is absent or empty.
const DefaultRole = "user"

// AllowedRoles defines the marketplace roles an imported user may hold.
var AllowedRoles = map[string]bool{
	"user":   true,
	"seller": true,
	"admin":  true,
}

// AllowedRolesList is the stable ordering used in API responses.
var AllowedRolesList = []string{"user", "seller", "admin"}

// ImportFields is the full schema with human-readable descriptions,
// returned by the fields endpoint.
var ImportFields = []ImportField{
	{Name: "email", Required: true, Description: "Login email address, must be unique across the marketplace"},
	{Name: "first_name", Required: true, Description: "User's first name"},
	{Name: "last_name", Required: true, Description: "User's last name"},
	{Name: "role", Required: false, Description: "One of: user, seller, admin (defaults to user)"},
}

// TemplateHeader returns the CSV header row for the downloadable template.
func TemplateHeader() []string {
	header := make([]string, 0, len(RequiredFields)+len(OptionalFields))
	header = append(header, RequiredFields...)
	header = append(header, OptionalFields...)
	return header
}

// TemplateSampleRow is the illustrative data row in the template.
var TemplateSampleRow = []string{"jane.doe@example.com", "Jane", "Doe", "seller"}
