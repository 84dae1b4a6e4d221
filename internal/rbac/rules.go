package rbac

// Simple default policy. Expand as needed.
var RolePermissions = map[string][]string{
	"student": {
		"content:view",
		"result:submit",
		"result:view-own",
		"progress:view-own",
		"progress:update-own",
		"assignment:view-own",
		"user:change_password",
	},
	"teacher": {
		"content:view",
		"content:edit",
		"test:edit",
		"assignment:manage",
		"assignment:view-all",
		"group:manage",
		"result:submit",
		"result:view-own",
		"progress:view-own",
		"user:change_password",
	},
	"admin": {
		"*", // everything
	},
}
