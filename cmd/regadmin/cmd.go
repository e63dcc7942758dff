package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/sparks-2204/course-recommendation-system/internal/app/models"
	appRepos "github.com/sparks-2204/course-recommendation-system/internal/app/repositories"
	"github.com/sparks-2204/course-recommendation-system/internal/app/services"
	"github.com/sparks-2204/course-recommendation-system/internal/bootstrap"
	"github.com/sparks-2204/course-recommendation-system/internal/config"
	"github.com/sparks-2204/course-recommendation-system/internal/pkg/apperrors"
	"github.com/sparks-2204/course-recommendation-system/internal/pkg/auth"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp  = errors.New("help provided")
	errDrift = errors.New("ledger drift detected")
)

// reportable reports whether err still needs logging; usage and drift
// are already printed to the user.
func reportable(err error) bool {
	return err != nil && !apperrors.Is(err, errHelp, errDrift)
}

type commandLine struct {
	cfg       *config.Config
	repos     *appRepos.Repositories
	analytics services.AnalyticsService
	logger    zerolog.Logger
	out       io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  audit [-all]                                   - reconcile course rosters against student records")
	fmt.Fprintln(cli.out, "  stats                                          - print system totals and popular courses")
	fmt.Fprintln(cli.out, "  adduser -email EMAIL -name NAME -role ROLE     - create a user; the password is prompted next")
	fmt.Fprintln(cli.out, "  seed                                           - create the default admin and sample catalog")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	ctx := context.Background()

	auditCmd := flag.NewFlagSet("audit", flag.ContinueOnError)
	auditAll := auditCmd.Bool("all", false, "List consistent courses too")

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserEmail := addUserCmd.String("email", "", "The user's email")
	addUserName := addUserCmd.String("name", "", "The user's full name")
	addUserRole := addUserCmd.String("role", string(models.RoleAdmin), "One of student, faculty or admin")
	addUserStudentID := addUserCmd.String("studentid", "", "Student number, required for students")

	auditCmd.SetOutput(cli.out)
	addUserCmd.SetOutput(cli.out)

	switch args[1] {
	case "audit":
		if err := auditCmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.audit(ctx, *auditAll)

	case "stats":
		return cli.stats(ctx)

	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserEmail == "" || *addUserName == "" {
			addUserCmd.Usage()
			return errHelp
		}
		fmt.Fprint(cli.out, "Enter password:")
		pwd, err := readPasswordFunc(int(syscall.Stdin))
		fmt.Fprintln(cli.out)
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(ctx, *addUserEmail, *addUserName, models.Role(*addUserRole), *addUserStudentID, string(pwd))

	case "seed":
		bootstrap.SeedDefaults(ctx, cli.cfg, cli.repos, cli.logger)
		color.New(color.FgGreen).Fprintln(cli.out, "Default data checked")
		return nil

	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) audit(ctx context.Context, all bool) error {
	rec, err := cli.analytics.Audit(ctx)
	if err != nil {
		return err
	}

	rows := rec.DriftedCourses()
	if all {
		rows = rec.Courses
	}

	if len(rows) > 0 {
		table := tablewriter.NewWriter(cli.out)
		table.SetHeader([]string{"Course", "Counter", "Roster", "Records", "Missing roster", "Missing record"})
		for _, d := range rows {
			table.Append([]string{
				d.CourseCode,
				strconv.Itoa(d.CurrentEnrollment),
				strconv.Itoa(d.RosterCount),
				strconv.Itoa(d.ActiveRecords),
				joinIDs(d.MissingRoster),
				joinIDs(d.MissingRecord),
			})
		}
		table.Render()
	}

	fmt.Fprintf(cli.out, "Checked %d courses across %d users\n", rec.Checked, rec.Students)
	if rec.Drifted > 0 {
		color.New(color.FgRed, color.Bold).Fprintf(cli.out, "%d course(s) drifted\n", rec.Drifted)
		return errDrift
	}
	color.New(color.FgGreen).Fprintln(cli.out, "Ledger consistent")
	return nil
}

func (cli *commandLine) stats(ctx context.Context) error {
	stats, err := cli.analytics.SystemStats(ctx)
	if err != nil {
		return err
	}

	color.New(color.FgYellow).Fprintln(cli.out, "System totals")
	totals := tablewriter.NewWriter(cli.out)
	totals.SetHeader([]string{"Users", "Students", "Faculty", "Courses", "Enrollments"})
	totals.Append([]string{
		strconv.FormatInt(stats.TotalUsers, 10),
		strconv.FormatInt(stats.TotalStudents, 10),
		strconv.FormatInt(stats.TotalFaculty, 10),
		strconv.FormatInt(stats.TotalCourses, 10),
		strconv.FormatInt(stats.TotalEnrollments, 10),
	})
	totals.Render()

	color.New(color.FgYellow).Fprintln(cli.out, "\nPopular courses")
	popular := tablewriter.NewWriter(cli.out)
	popular.SetHeader([]string{"Code", "Title", "Enrolled", "Capacity"})
	for _, c := range stats.PopularCourses {
		popular.Append([]string{c.CourseCode, c.Title, strconv.Itoa(c.CurrentEnrollment), strconv.Itoa(c.MaxCapacity)})
	}
	popular.Render()
	return nil
}

func (cli *commandLine) addUser(ctx context.Context, email, name string, role models.Role, studentID, password string) error {
	if !role.Valid() {
		return fmt.Errorf("invalid role %q", role)
	}
	if len(password) < 6 {
		return errors.New("password must be at least 6 characters")
	}

	user := &models.User{
		Name:  name,
		Email: strings.ToLower(strings.TrimSpace(email)),
		Role:  role,
	}
	if role == models.RoleStudent {
		if studentID == "" {
			return errors.New("students need a -studentid")
		}
		user.StudentID = &studentID
		user.Year = models.YearFreshman
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}
	user.Password = hashed

	if err := cli.repos.Users.Create(ctx, user); err != nil {
		return fmt.Errorf("error creating user: %w", err)
	}

	color.New(color.FgGreen).Fprintf(cli.out, "Created %s %s (id %d)\n", role, user.Email, user.ID)
	return nil
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}
