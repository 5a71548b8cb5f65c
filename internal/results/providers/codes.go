package providers

import "github.com/Azure/aimbiztalk-sub006/internal/diagnostics"

var builtinCodes = []CodeEntry{
	{
		Code:        string(diagnostics.CodeModelIntegrity),
		Name:        "Model integrity failure",
		Description: "A resource node has no backing entity in the parsed model, so its dependencies could not be analyzed.",
		Help:        "Re-run the parse stage; the resource and catalog are out of sync.",
	},
	{
		Code:        string(diagnostics.CodeUnresolved),
		Name:        "Unresolved reference",
		Description: "An artifact references a name that matches no known artifact.",
		Help:        "Include the application that declares the referenced artifact in the input.",
	},
	{
		Code:        string(diagnostics.CodeAmbiguous),
		Name:        "Ambiguous reference",
		Description: "An artifact references a name that matches more than one artifact. No relationship was created.",
		Help:        "Rename or remove duplicate artifacts so the reference is unique.",
	},
	{
		Code:        string(diagnostics.CodeDanglingRoute),
		Name:        "Dangling route reference",
		Description: "A message route references a channel or messaging object that is missing from the target model.",
		Help:        "The generated scenario is incomplete; inspect the subscriptions of the named channel.",
	},
	{
		Code:        string(diagnostics.CodeInformational),
		Name:        "Informational",
		Description: "A reference to a platform built-in type that is not resolved in the model.",
	},
	{
		Code:        string(diagnostics.CodeSymmetry),
		Name:        "Asymmetric relationship",
		Description: "A relationship edge exists without its complementary edge in the opposite direction.",
	},
	{
		Code:        string(diagnostics.CodeAnalysisCanceled),
		Name:        "Analysis canceled",
		Description: "The run was canceled before every rule or application was analyzed.",
	},
}
