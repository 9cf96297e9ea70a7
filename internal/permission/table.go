package permission

import (
	_ "embed"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

//go:embed model.conf
var modelText string

// Operations the table knows about.
const (
	OpRead   = "read"
	OpWrite  = "write"
	OpDelete = "delete"
)

// Portal roles.
const (
	RoleAdmin  = "admin"
	RoleAE     = "ae"
	RoleOps    = "ops"
	RoleViewer = "viewer"
)

// Portal documents.
const (
	DocClients        = "clients.json"
	DocUsers          = "users.json"
	DocEnergyProfiles = "energy-profiles.json"
	DocBids           = "bids.json"
	DocLMPMonthly     = "lmp-database.json"
	DocLMPHourly      = "lmp-hourly-database.json"
	DocHelpContent    = "help-content.json"
)

// defaultPolicies enumerates every allowed (role, document, operation)
// triple. Absence means denial; there are no wildcards and no explicit
// deny rules.
var defaultPolicies = [][3]string{
	// admin: full access to every document.
	{RoleAdmin, DocClients, OpRead}, {RoleAdmin, DocClients, OpWrite}, {RoleAdmin, DocClients, OpDelete},
	{RoleAdmin, DocUsers, OpRead}, {RoleAdmin, DocUsers, OpWrite}, {RoleAdmin, DocUsers, OpDelete},
	{RoleAdmin, DocEnergyProfiles, OpRead}, {RoleAdmin, DocEnergyProfiles, OpWrite}, {RoleAdmin, DocEnergyProfiles, OpDelete},
	{RoleAdmin, DocBids, OpRead}, {RoleAdmin, DocBids, OpWrite}, {RoleAdmin, DocBids, OpDelete},
	{RoleAdmin, DocLMPMonthly, OpRead}, {RoleAdmin, DocLMPMonthly, OpWrite}, {RoleAdmin, DocLMPMonthly, OpDelete},
	{RoleAdmin, DocLMPHourly, OpRead}, {RoleAdmin, DocLMPHourly, OpWrite}, {RoleAdmin, DocLMPHourly, OpDelete},
	{RoleAdmin, DocHelpContent, OpRead}, {RoleAdmin, DocHelpContent, OpWrite}, {RoleAdmin, DocHelpContent, OpDelete},

	// ae: works clients, bids and energy profiles; reads pricing and help.
	// No delete rights anywhere.
	{RoleAE, DocClients, OpRead}, {RoleAE, DocClients, OpWrite},
	{RoleAE, DocEnergyProfiles, OpRead}, {RoleAE, DocEnergyProfiles, OpWrite},
	{RoleAE, DocBids, OpRead}, {RoleAE, DocBids, OpWrite},
	{RoleAE, DocLMPMonthly, OpRead},
	{RoleAE, DocLMPHourly, OpRead},
	{RoleAE, DocHelpContent, OpRead},

	// ops: owns the pricing documents end to end, reads the rest.
	{RoleOps, DocClients, OpRead},
	{RoleOps, DocEnergyProfiles, OpRead},
	{RoleOps, DocBids, OpRead},
	{RoleOps, DocLMPMonthly, OpRead}, {RoleOps, DocLMPMonthly, OpWrite}, {RoleOps, DocLMPMonthly, OpDelete},
	{RoleOps, DocLMPHourly, OpRead}, {RoleOps, DocLMPHourly, OpWrite}, {RoleOps, DocLMPHourly, OpDelete},
	{RoleOps, DocHelpContent, OpRead}, {RoleOps, DocHelpContent, OpWrite},

	// viewer: read-only, no user administration.
	{RoleViewer, DocClients, OpRead},
	{RoleViewer, DocEnergyProfiles, OpRead},
	{RoleViewer, DocBids, OpRead},
	{RoleViewer, DocLMPMonthly, OpRead},
	{RoleViewer, DocLMPHourly, OpRead},
	{RoleViewer, DocHelpContent, OpRead},
}

// Table answers allow/deny questions for (role, document, operation)
// triples. Policies are loaded once at construction; there is no
// runtime mutation path, so authorization changes require a deploy.
type Table struct {
	enforcer *casbin.SyncedEnforcer
}

// NewTable builds the enforcer with the default policy set.
func NewTable() (*Table, error) {
	return NewTableWithPolicies(defaultPolicies)
}

// NewTableWithPolicies builds the enforcer with a caller-supplied
// policy set. Used by tests.
func NewTableWithPolicies(policies [][3]string) (*Table, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, err
	}
	rules := make([][]string, 0, len(policies))
	for _, p := range policies {
		rules = append(rules, []string{p[0], p[1], p[2]})
	}
	if len(rules) > 0 {
		if _, err := enforcer.AddPolicies(rules); err != nil {
			return nil, err
		}
	}
	return &Table{enforcer: enforcer}, nil
}

// IsAllowed reports whether the role may perform the operation on the
// named document. Unknown roles, documents and operations all deny.
func (t *Table) IsAllowed(role, document, operation string) bool {
	role = strings.TrimSpace(role)
	document = strings.TrimSpace(document)
	operation = strings.TrimSpace(operation)
	if role == "" || document == "" || operation == "" {
		return false
	}
	allowed, err := t.enforcer.Enforce(role, document, operation)
	if err != nil {
		return false
	}
	return allowed
}

// OperationForMethod maps an HTTP method onto a table operation.
// Unknown methods map to the empty string, which always denies.
func OperationForMethod(method string) string {
	switch strings.ToUpper(method) {
	case "GET":
		return OpRead
	case "POST", "PUT", "PATCH":
		return OpWrite
	case "DELETE":
		return OpDelete
	default:
		return ""
	}
}
