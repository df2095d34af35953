package cli

import "github.com/dl-alexandre/mail/pkg/version"

// AboutCmd reports the build identity plus the operation/feature surface a
// scripted caller can rely on without parsing --help output.
type AboutCmd struct{}

func (cmd *AboutCmd) Run(globals *Globals) error {
	flags := globals.ToGlobalFlags()
	out := NewOutputWriter(flags.OutputFormat, flags.Quiet, flags.Verbose)

	info := version.Get()

	capabilities := map[string]interface{}{
		"version": info.Version,
		"build": map[string]interface{}{
			"gitCommit": info.GitCommit,
			"buildTime": info.BuildTime,
			"goVersion": info.GoVersion,
			"platform":  info.Platform,
		},
		"api": map[string]interface{}{
			"supportedOperations": []string{
				"list", "read", "thread", "search", "send", "reply",
				"groups.list", "groups.show", "groups.create", "groups.add", "groups.remove", "groups.delete", "groups.validate",
				"styles.list", "styles.show", "styles.create", "styles.edit", "styles.delete", "styles.validate",
				"workflows.list", "workflows.start", "workflows.continue", "workflows.cleanup",
			},
			"features": []string{
				"progressive_disclosure_read_model", "style_linting", "group_expansion",
				"stateful_workflows", "dry_run", "safety_confirmation", "bounded_concurrency_fanout",
			},
		},
		"authentication": map[string]interface{}{
			"oauth2Flows": []string{"loopback_pkce", "manual_code", "service_account"},
			"scopes": map[string]interface{}{
				"default":  []string{"gmail.send", "gmail.compose", "gmail.modify", "gmail.labels", "gmail.settings.basic"},
				"readOnly": []string{"gmail.readonly"},
				"full":     []string{"mail.google.com (restricted, full mailbox access)"},
			},
		},
		"outputFormats": []string{"rich", "json"},
		"configuration": map[string]interface{}{
			"configFile":    "~/.mail/config.json",
			"groupsFile":    "~/.mail/email-groups.json",
			"stylesDir":     "~/.mail/email-styles",
			"workflowsFile": "~/.mail/workflows.yaml",
			"stateDir":      "~/.mail/workflow-states",
		},
	}

	return out.WriteSuccess("about", capabilities)
}
