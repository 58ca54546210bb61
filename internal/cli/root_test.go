package cli

import "testing"

func TestSetVersionInfo(t *testing.T) {
	origVersion, origCommit, origDate := appVersion, appCommit, appDate
	defer func() { appVersion, appCommit, appDate = origVersion, origCommit, origDate }()

	SetVersionInfo("1.2.3", "abc123", "2026-03-01")
	if appVersion != "1.2.3" || appCommit != "abc123" || appDate != "2026-03-01" {
		t.Errorf("version info = %s/%s/%s", appVersion, appCommit, appDate)
	}
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	for _, name := range []string{"project", "task", "plan", "summary", "alerts", "mcp", "version"} {
		found := false
		for _, cmd := range rootCmd.Commands() {
			if cmd.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("root command missing subcommand %q", name)
		}
	}
}
