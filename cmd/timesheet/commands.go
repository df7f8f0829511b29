package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/medflow/timesheet/internal/timesheet/capture"
	"github.com/medflow/timesheet/internal/timesheet/client"
	"github.com/medflow/timesheet/internal/timesheet/domain"
	"github.com/medflow/timesheet/internal/timesheet/export"
	"github.com/medflow/timesheet/internal/timesheet/navigator"
	"github.com/medflow/timesheet/pkg/config"
	"github.com/medflow/timesheet/pkg/logger"
	"github.com/spf13/cobra"
)

// app carries what every command needs once flags are parsed
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	client  *client.TimesheetClient
	apiURL  string
	locale  string
	userID  string
	verbose bool
}

func (a *app) init(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load("timesheet")
	if err != nil {
		return err
	}
	if a.apiURL != "" {
		cfg.Gateway.BaseURL = a.apiURL
	}
	if a.locale != "" {
		cfg.Gateway.Locale = a.locale
	}
	a.cfg = cfg

	a.log = logger.Nop()
	if a.verbose {
		a.log = logger.NewWithWriter("timesheet", os.Stderr)
	}

	a.client = client.NewTimesheetClient(cfg.Gateway, a.log).WithUser(a.userID)
	return nil
}

func newRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:               "timesheet",
		Short:             "Capture daily timesheets and export them as spreadsheets",
		SilenceUsage:      true,
		PersistentPreRunE: a.init,
	}
	rootCmd.PersistentFlags().StringVar(&a.apiURL, "api", "", "timesheet service base URL (default from config)")
	rootCmd.PersistentFlags().StringVar(&a.locale, "locale", "", "display and report language: en or es")
	rootCmd.PersistentFlags().StringVar(&a.userID, "user", "", "user ID sent with every request")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log requests to stderr")

	rootCmd.AddCommand(newCaptureCommand(a))
	rootCmd.AddCommand(newExportCommand(a))
	rootCmd.AddCommand(newJobsCommand(a))

	return rootCmd
}

func newCaptureCommand(a *app) *cobra.Command {
	var (
		employeeID string
		companyID  string
		name       string
		company    string
		outDir     string
	)

	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Capture days interactively over a date range",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			catalog, err := navigator.LoadCatalog(ctx, a.client)
			if err != nil {
				return fmt.Errorf("failed to load job catalog: %w", err)
			}

			if company == "" {
				company = a.cfg.Export.CompanyName
			}
			if name == "" {
				name = employeeID
			}

			nav := navigator.New(a.client, navigator.NewSession(employeeID, companyID), catalog, a.log)
			console := capture.NewConsole(nav, capture.Config{
				EmployeeName: name,
				CompanyName:  company,
				OutputDir:    outDir,
				Locale:       a.cfg.Gateway.Locale,
				SheetName:    a.cfg.Export.SheetName,
			}, cmd.InOrStdin(), cmd.OutOrStdout(), a.log)

			return console.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&employeeID, "employee", "", "employee ID")
	cmd.Flags().StringVar(&companyID, "company-id", "", "company ID sent with saved days")
	cmd.Flags().StringVar(&name, "name", "", "employee name printed on reports")
	cmd.Flags().StringVar(&company, "company", "", "company name printed on reports")
	cmd.Flags().StringVar(&outDir, "out", ".", "directory reports are written to")
	cmd.MarkFlagRequired("employee")

	return cmd
}

func newExportCommand(a *app) *cobra.Command {
	var (
		employeeID string
		from       string
		to         string
		outDir     string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download the stored days of a period as a spreadsheet",
		RunE: func(cmd *cobra.Command, args []string) error {
			rng, err := domain.NewDateRange(from, to)
			if err != nil {
				return err
			}

			report, err := a.client.Export(cmd.Context(), employeeID, rng)
			if err != nil {
				return err
			}

			fileName := report.FileName
			if fileName == "" {
				fileName = export.Filename(employeeID, rng.Start.String(), rng.End.String())
			}
			path := filepath.Join(outDir, filepath.Base(fileName))
			if err := os.WriteFile(path, report.Data, 0o644); err != nil {
				return fmt.Errorf("failed to write report: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&employeeID, "employee", "", "employee ID")
	cmd.Flags().StringVar(&from, "from", "", "first day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "last day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&outDir, "out", ".", "directory the report is written to")
	cmd.MarkFlagRequired("employee")
	cmd.MarkFlagRequired("from")
	cmd.MarkFlagRequired("to")

	return cmd
}

func newJobsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "jobs",
		Short: "List the job catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			jobs, err := a.client.FetchJobCatalog(cmd.Context())
			if err != nil {
				return err
			}
			capture.RenderJobs(cmd.OutOrStdout(), domain.NewJobCatalog(jobs).Jobs())
			return nil
		},
	}
}
