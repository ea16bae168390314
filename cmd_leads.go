package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/amarkiccha/lead/model"
	"github.com/amarkiccha/lead/pkg/datetime"
	"github.com/amarkiccha/lead/service"
)

func (a *app) newLeadsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leads",
		Short: "Read and append leads directly against the sheet",
	}
	cmd.AddCommand(a.newLeadsListCmd(), a.newLeadsAddCmd())
	return cmd
}

func (a *app) newLeadsListCmd() *cobra.Command {
	var name, project, date string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the lead directory, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			criteria := model.FilterCriteria{SearchName: name, Project: project}
			if date != "" {
				day, err := datetime.ParseCriteriaDate(date)
				if err != nil {
					return err
				}
				criteria.Date = &day
			}

			leads, err := service.NewSheetsClient(&a.cfg.Sheets).ListLeads(cmd.Context())
			if err != nil {
				return err
			}

			matched := service.ApplyFilters(leads, criteria)
			if err := writeLeadTable(cmd.OutOrStdout(), matched); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\n%d of %d leads\n", len(matched), len(leads))
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "case-insensitive name substring")
	cmd.Flags().StringVar(&project, "project", model.AllProjects, "exact project name")
	cmd.Flags().StringVar(&date, "date", "", "calendar day, YYYY-MM-DD")
	return cmd
}

func writeLeadTable(out io.Writer, leads []model.Lead) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPROJECT\tPHONE\tDATE\tTIME")
	for _, l := range leads {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			l.ID, l.Name, l.ProjectName, l.PhoneNumber,
			datetime.FormatDisplayDate(l.Date), datetime.FormatDisplayTime(l.Time))
	}
	return w.Flush()
}

func (a *app) newLeadsAddCmd() *cobra.Command {
	var lead model.Lead

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Append a lead to the sheet",
		RunE: func(cmd *cobra.Command, _ []string) error {
			lead.Name = strings.TrimSpace(lead.Name)
			lead.ProjectName = strings.TrimSpace(lead.ProjectName)
			lead.PhoneNumber = strings.TrimSpace(lead.PhoneNumber)
			if lead.Name == "" || lead.ProjectName == "" || lead.PhoneNumber == "" {
				return errors.New("name, project and phone must not be blank")
			}

			loc, err := a.cfg.Capture.Location()
			if err != nil {
				return err
			}
			now := time.Now().In(loc)
			if lead.Date == "" {
				lead.Date = datetime.FormatWireDate(now)
			} else if _, ok := datetime.ParseDate(lead.Date); !ok {
				return fmt.Errorf("invalid date %q", lead.Date)
			}
			if lead.Time == "" {
				lead.Time = datetime.FormatWireTime(now)
			} else if _, ok := datetime.ParseClock(lead.Time); !ok {
				return fmt.Errorf("invalid time %q", lead.Time)
			}

			if _, err := service.NewSheetsClient(&a.cfg.Sheets).AppendLead(cmd.Context(), lead); err != nil {
				return fmt.Errorf("%w (the row may or may not have been written)", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Lead added: %s (%s) on %s at %s\n",
				lead.Name, lead.ProjectName, datetime.WireDate(lead.Date), lead.Time)
			return nil
		},
	}
	cmd.Flags().StringVar(&lead.Name, "name", "", "lead name")
	cmd.Flags().StringVar(&lead.ProjectName, "project", "", "project name")
	cmd.Flags().StringVar(&lead.PhoneNumber, "phone", "", "phone number")
	cmd.Flags().StringVar(&lead.Date, "date", "", "date, defaults to today in the capture timezone")
	cmd.Flags().StringVar(&lead.Time, "time", "", "time, defaults to now in the capture timezone")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("phone")
	return cmd
}
