package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"orarictl/pkg/exporter"
	"orarictl/pkg/publish"
	"orarictl/pkg/scraper"

	"github.com/charmbracelet/huh/spinner"
	"github.com/spf13/cobra"
)

// maxExportWeeks caps how many consecutive weeks one export may span.
const maxExportWeeks = 12

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a course timetable to an ICS file",
	Long: `Export the lessons of a course year to an ICS file without using the interactive TUI.
With --s3-bucket the calendar is also uploaded to S3 (credentials from the usual AWS
sources or ORARICTL_S3_* variables).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		weeks, _ := cmd.Flags().GetInt("weeks")
		bucket, _ := cmd.Flags().GetString("s3-bucket")
		key, _ := cmd.Flags().GetString("s3-key")

		if weeks < 1 || weeks > maxExportWeeks {
			return fmt.Errorf("--weeks must be between 1 and %d", maxExportWeeks)
		}

		s, err := newSession()
		if err != nil {
			return err
		}
		defer s.Close()

		sel, err := courseSelection(cmd, s.cfg)
		if err != nil {
			return err
		}

		ctx := context.Background()
		var lessons []scraper.Lesson
		_ = spinner.New().
			Title(fmt.Sprintf("Exporting %d week(s) of %s, year %d...", weeks, sel.courseID, sel.year)).
			Action(func() {
				for i := 0; i < weeks; i++ {
					week := sel.week.AddDate(0, 0, 7*i)
					var batch []scraper.Lesson
					batch, _, err = s.service.WeeklyLessons(ctx, sel.courseID, sel.year, sel.academicYear, week)
					if err != nil {
						err = fmt.Errorf("week of %s: %w", scraper.FormatDate(week), err)
						return
					}
					lessons = append(lessons, batch...)
				}
			}).
			Run()

		if err != nil {
			return fmt.Errorf("failed to fetch lessons: %w", err)
		}
		if len(lessons) == 0 {
			return fmt.Errorf("no lessons found for course %s, year %d", sel.courseID, sel.year)
		}

		var buf bytes.Buffer
		name := fmt.Sprintf("%s - anno %d", courseName(ctx, s, sel.courseID), sel.year)
		if err := exporter.GenerateICS(name, lessons, &buf); err != nil {
			return fmt.Errorf("failed to generate ICS: %w", err)
		}

		if output == "-" {
			_, err = os.Stdout.Write(buf.Bytes())
			return err
		}
		if err := os.WriteFile(output, buf.Bytes(), 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Printf("Successfully exported %d lessons to %s\n", len(lessons), output)

		if bucket == "" {
			return nil
		}
		if key == "" {
			key = fmt.Sprintf("%s/anno-%d.ics", sel.courseID, sel.year)
		}

		uploadCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()
		pub, err := publish.New(uploadCtx, publish.ConfigFromEnv(bucket))
		if err != nil {
			return err
		}
		if err := pub.PutCalendar(uploadCtx, key, buf.Bytes()); err != nil {
			return err
		}
		fmt.Printf("Uploaded to s3://%s/%s\n", pub.Bucket(), key)
		return nil
	},
}

// courseName looks the course up in the catalog, falling back to its ID.
func courseName(ctx context.Context, s *session, courseID string) string {
	courses, _, err := s.service.Courses(ctx)
	if err != nil {
		s.logger.Printf("Catalog lookup for calendar name failed: %v", err)
		return courseID
	}
	for _, c := range courses {
		if c.ID == courseID {
			return c.Name
		}
	}
	return courseID
}

func init() {
	rootCmd.AddCommand(exportCmd)
	addCourseFlags(exportCmd)

	exportCmd.Flags().StringP("output", "o", "orario.ics", "Output file path, - for stdout")
	exportCmd.Flags().Int("weeks", 1, "Number of consecutive weeks to export")
	exportCmd.Flags().String("s3-bucket", "", "Also upload the calendar to this S3 bucket")
	exportCmd.Flags().String("s3-key", "", "Object key for the upload (default <course>/anno-<year>.ics)")
}
