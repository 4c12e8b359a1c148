package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"form-agent/internal/di"
	"form-agent/internal/domain/entity"
	"form-agent/internal/infrastructure/objectivefile"
	"form-agent/internal/infrastructure/userinteraction"
)

type runFlags struct {
	objectiveFile  string
	timeout        time.Duration
	screenshotPath string
	fields         entity.Objective
}

func newRunCmd(a *app) *cobra.Command {
	f := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fill the configured form once and report the outcome",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.validated()
			if err != nil {
				return err
			}
			objective, err := f.objective()
			if err != nil {
				return err
			}

			container, err := di.NewContainer(cfg, di.Options{
				Progress: userinteraction.NewConsoleProgress(cmd.OutOrStdout()),
			})
			if err != nil {
				return fmt.Errorf("initialisation failed: %w", err)
			}
			defer container.Close()

			ctx := cmd.Context()
			if f.timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, f.timeout)
				defer cancel()
			}

			result, err := container.Workflow.Run(ctx, objective)
			if err != nil {
				return err
			}

			if f.screenshotPath != "" && result.Screenshot != nil {
				if err := os.WriteFile(f.screenshotPath, result.Screenshot.Data, 0o644); err != nil {
					return fmt.Errorf("failed to save screenshot: %w", err)
				}
				container.Logger.Info("Screenshot saved", "path", f.screenshotPath)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.objectiveFile, "objective", "o", "", "JSON or YAML file with the person record")
	flags.DurationVar(&f.timeout, "timeout", 30*time.Minute, "overall run timeout")
	flags.StringVar(&f.screenshotPath, "screenshot", "", "write the final screenshot to this path")
	flags.StringVar(&f.fields.FirstName, "first-name", "", "first name")
	flags.StringVar(&f.fields.LastName, "last-name", "", "last name")
	flags.StringVar(&f.fields.DateOfBirth, "date-of-birth", "", "date of birth")
	flags.StringVar(&f.fields.MedicalID, "medical-id", "", "medical record ID")
	flags.StringVar(&f.fields.Gender, "gender", "", "gender")
	flags.StringVar(&f.fields.BloodType, "blood-type", "", "blood type")
	flags.StringVar(&f.fields.Allergies, "allergies", "", "allergies")
	flags.StringVar(&f.fields.CurrentMedications, "medications", "", "current medications")
	flags.StringVar(&f.fields.EmergencyContactName, "emergency-contact-name", "", "emergency contact name")
	flags.StringVar(&f.fields.EmergencyContactPhone, "emergency-contact-phone", "", "emergency contact phone")
	return cmd
}

// objective merges the optional file with per-field flags, flags winning.
func (f *runFlags) objective() (entity.Objective, error) {
	var o entity.Objective
	if f.objectiveFile != "" {
		loaded, err := objectivefile.Load(f.objectiveFile)
		if err != nil {
			return o, err
		}
		o = loaded
	}

	override := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	override(&o.FirstName, f.fields.FirstName)
	override(&o.LastName, f.fields.LastName)
	override(&o.DateOfBirth, f.fields.DateOfBirth)
	override(&o.MedicalID, f.fields.MedicalID)
	override(&o.Gender, f.fields.Gender)
	override(&o.BloodType, f.fields.BloodType)
	override(&o.Allergies, f.fields.Allergies)
	override(&o.CurrentMedications, f.fields.CurrentMedications)
	override(&o.EmergencyContactName, f.fields.EmergencyContactName)
	override(&o.EmergencyContactPhone, f.fields.EmergencyContactPhone)

	if err := o.Validate(); err != nil {
		return o, err
	}
	return o, nil
}
