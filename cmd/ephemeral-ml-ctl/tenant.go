// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/linuxfoundation/lfx-v2-ephemeral-ml-service/internal/domain/model"
	"github.com/linuxfoundation/lfx-v2-ephemeral-ml-service/pkg/constants"
	"github.com/linuxfoundation/lfx-v2-ephemeral-ml-service/pkg/errors"
)

var tenantCmd = &cobra.Command{
	Use:   "tenant",
	Short: "Tenant operations",
}

var tenantCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Register a tenant",
	Long: `Register a tenant.

Settings come from --yamlfile and are overridden by the individual flags.
Message templates are read from files, for example:

  ephemeral-ml-ctl tenant create acme \
      --admin admin@example.org \
      --new-ml-account new --ml-name-format 'ml-%06d' \
      --days-to-orphan 7 --days-to-close 7 \
      --welcome-file welcome.txt --readme-file readme.txt`,
	Args: cobra.ExactArgs(1),
	RunE: runTenantCreate,
}

var tenantUpdateCmd = &cobra.Command{
	Use:   "update <name>",
	Short: "Update a tenant",
	Long: `Update a tenant.

Only settings given via --yamlfile or the individual flags change; everything
else is left as stored.`,
	Args: cobra.ExactArgs(1),
	RunE: runTenantUpdate,
}

var tenantShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a tenant's settings as YAML",
	Args:  cobra.ExactArgs(1),
	RunE:  runTenantShow,
}

var tenantListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tenants",
	RunE:  runTenantList,
}

var tenantDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a tenant and every list it owns",
	Args:  cobra.ExactArgs(1),
	RunE:  runTenantDelete,
}

func init() {
	addTenantFlags(tenantCreateCmd)
	addTenantFlags(tenantUpdateCmd)
	tenantCmd.AddCommand(tenantCreateCmd)
	tenantCmd.AddCommand(tenantUpdateCmd)
	tenantCmd.AddCommand(tenantShowCmd)
	tenantCmd.AddCommand(tenantListCmd)
	tenantCmd.AddCommand(tenantDeleteCmd)
	rootCmd.AddCommand(tenantCmd)
}

// addTenantFlags registers the settings flags shared by create and update.
func addTenantFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.String("yamlfile", "", "YAML file with tenant settings")
	flags.StringArray("admin", nil, "admin address (repeatable)")
	flags.String("charset", "", "message charset")
	flags.Bool("enable", false, "enable the tenant")
	flags.Bool("disable", false, "disable the tenant")
	flags.Int("days-to-orphan", 0, "idle days before an open list is orphaned")
	flags.Int("days-to-close", 0, "idle days before an orphaned list is closed")
	flags.String("ml-name-format", "", "list name format, e.g. 'ml-%06d'")
	flags.String("new-ml-account", "", "seed address local part")
	flags.String("welcome-file", "", "welcome message template file")
	flags.String("readme-file", "", "readme message template file")
	flags.String("add-file", "", "member-added message template file")
	flags.String("remove-file", "", "member-removed message template file")
	flags.String("reopen-file", "", "reopen message template file")
	flags.String("goodbye-file", "", "goodbye message template file")
	flags.String("report-subject", "", "status report subject")
	flags.String("report-file", "", "status report template file")
	flags.String("orphaned-subject", "", "orphan notice subject")
	flags.String("orphaned-file", "", "orphan notice template file")
	flags.String("closed-subject", "", "close notice subject")
	flags.String("closed-file", "", "close notice template file")
}

// tenantFile is the YAML shape accepted by --yamlfile. The keys match the
// stored document fields.
type tenantFile struct {
	Status       *string  `yaml:"status"`
	Admins       []string `yaml:"admins"`
	Charset      *string  `yaml:"charset"`
	MLNameFormat *string  `yaml:"ml_name_format"`
	NewMLAccount *string  `yaml:"new_ml_account"`
	DaysToOrphan *int     `yaml:"days_to_orphan"`
	DaysToClose  *int     `yaml:"days_to_close"`

	WelcomeMsg *string `yaml:"welcome_msg"`
	ReadmeMsg  *string `yaml:"readme_msg"`
	AddMsg     *string `yaml:"add_msg"`
	RemoveMsg  *string `yaml:"remove_msg"`
	ReopenMsg  *string `yaml:"reopen_msg"`
	GoodbyeMsg *string `yaml:"goodbye_msg"`

	ReportSubject   *string `yaml:"report_subject"`
	ReportMsg       *string `yaml:"report_msg"`
	OrphanedSubject *string `yaml:"orphaned_subject"`
	OrphanedMsg     *string `yaml:"orphaned_msg"`
	ClosedSubject   *string `yaml:"closed_subject"`
	ClosedMsg       *string `yaml:"closed_msg"`
}

// buildPatch assembles a patch from --yamlfile plus the individual flags,
// flags winning on overlap.
func buildPatch(cmd *cobra.Command) (*model.TenantPatch, error) {
	patch := &model.TenantPatch{}
	flags := cmd.Flags()

	if path, _ := flags.GetString("yamlfile"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.NewValidation(fmt.Sprintf("failed to read %s", path), err)
		}
		var doc tenantFile
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, errors.NewValidation(fmt.Sprintf("failed to parse %s", path), err)
		}
		if doc.Status != nil {
			status := model.TenantStatus(*doc.Status)
			patch.Status = &status
		}
		patch.Admins = doc.Admins
		patch.Charset = doc.Charset
		patch.MLNameFormat = doc.MLNameFormat
		patch.NewMLAccount = doc.NewMLAccount
		patch.DaysToOrphan = doc.DaysToOrphan
		patch.DaysToClose = doc.DaysToClose
		patch.WelcomeMsg = doc.WelcomeMsg
		patch.ReadmeMsg = doc.ReadmeMsg
		patch.AddMsg = doc.AddMsg
		patch.RemoveMsg = doc.RemoveMsg
		patch.ReopenMsg = doc.ReopenMsg
		patch.GoodbyeMsg = doc.GoodbyeMsg
		patch.ReportSubject = doc.ReportSubject
		patch.ReportMsg = doc.ReportMsg
		patch.OrphanedSubject = doc.OrphanedSubject
		patch.OrphanedMsg = doc.OrphanedMsg
		patch.ClosedSubject = doc.ClosedSubject
		patch.ClosedMsg = doc.ClosedMsg
	}

	if admins, _ := flags.GetStringArray("admin"); len(admins) > 0 {
		patch.Admins = admins
	}

	enable, _ := flags.GetBool("enable")
	disable, _ := flags.GetBool("disable")
	if enable && disable {
		return nil, errors.NewValidation("--enable and --disable are mutually exclusive")
	}
	if enable {
		status := model.TenantEnabled
		patch.Status = &status
	} else if disable {
		status := model.TenantDisabled
		patch.Status = &status
	}

	setString := func(flagName string, dst **string) {
		if flags.Changed(flagName) {
			val, _ := flags.GetString(flagName)
			*dst = &val
		}
	}
	setString("charset", &patch.Charset)
	setString("ml-name-format", &patch.MLNameFormat)
	setString("new-ml-account", &patch.NewMLAccount)
	setString("report-subject", &patch.ReportSubject)
	setString("orphaned-subject", &patch.OrphanedSubject)
	setString("closed-subject", &patch.ClosedSubject)

	setInt := func(flagName string, dst **int) {
		if flags.Changed(flagName) {
			val, _ := flags.GetInt(flagName)
			*dst = &val
		}
	}
	setInt("days-to-orphan", &patch.DaysToOrphan)
	setInt("days-to-close", &patch.DaysToClose)

	setFile := func(flagName string, dst **string) error {
		if !flags.Changed(flagName) {
			return nil
		}
		path, _ := flags.GetString(flagName)
		data, err := os.ReadFile(path)
		if err != nil {
			return errors.NewValidation(fmt.Sprintf("failed to read %s", path), err)
		}
		content := string(data)
		*dst = &content
		return nil
	}
	fileFlags := []struct {
		name string
		dst  **string
	}{
		{"welcome-file", &patch.WelcomeMsg},
		{"readme-file", &patch.ReadmeMsg},
		{"add-file", &patch.AddMsg},
		{"remove-file", &patch.RemoveMsg},
		{"reopen-file", &patch.ReopenMsg},
		{"goodbye-file", &patch.GoodbyeMsg},
		{"report-file", &patch.ReportMsg},
		{"orphaned-file", &patch.OrphanedMsg},
		{"closed-file", &patch.ClosedMsg},
	}
	for _, ff := range fileFlags {
		if err := setFile(ff.name, ff.dst); err != nil {
			return nil, err
		}
	}

	return patch, nil
}

func runTenantCreate(cmd *cobra.Command, args []string) error {
	patch, err := buildPatch(cmd)
	if err != nil {
		return err
	}

	admin, cleanup, err := newAdmin(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()

	tenant := &model.Tenant{TenantName: args[0]}
	patch.Apply(tenant)
	return admin.Create(cmd.Context(), tenant, constants.ActorCLI)
}

func runTenantUpdate(cmd *cobra.Command, args []string) error {
	patch, err := buildPatch(cmd)
	if err != nil {
		return err
	}

	admin, cleanup, err := newAdmin(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()

	return admin.Update(cmd.Context(), args[0], constants.ActorCLI, patch)
}

func runTenantShow(cmd *cobra.Command, args []string) error {
	admin, cleanup, err := newAdmin(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()

	tenant, err := admin.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	// Render through the document's JSON form so the YAML keys match the
	// stored field names, and drop the audit log.
	data, err := json.Marshal(tenant)
	if err != nil {
		return err
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	delete(doc, "logs")

	out, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	fmt.Print(string(out))
	return nil
}

func runTenantList(cmd *cobra.Command, args []string) error {
	admin, cleanup, err := newAdmin(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()

	tenants, err := admin.List(cmd.Context())
	if err != nil {
		return err
	}
	for _, tenant := range tenants {
		fmt.Printf("%s: %s %s\n", tenant.TenantName, tenant.Status,
			tenant.Created.Format(time.DateTime))
	}
	return nil
}

func runTenantDelete(cmd *cobra.Command, args []string) error {
	admin, cleanup, err := newAdmin(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()

	return admin.Delete(cmd.Context(), args[0])
}
