package cli

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/learnkeeper/internal/services"
)

const privacyNotice = "Notice: data shown is anonymized and used for academic purposes only."

// AddStudent registers a student account on behalf of the admin.
func (a *App) AddStudent(ctx context.Context) error {
	in, err := a.readRegistration(false)
	if err != nil {
		return err
	}
	return a.register(ctx, in)
}

// Records prints every record with names and secrets masked.
func (a *App) Records(ctx context.Context) error {
	recs, err := a.deps.Records.Masked(ctx)
	if err != nil {
		return err
	}
	a.println(privacyNotice)
	if len(recs) == 0 {
		a.println("No records.")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "USER\tAGE\tACCESSES\tHOURS\tTYPE\tPASSWORD")
	for _, r := range recs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%.2f\t%s\t%s\n", r.Name, age(r.Age), r.AccessCount, r.SessionHours, r.EffectiveRole().Label(), r.Password)
	}
	return tw.Flush()
}

// Stats prints mean, mode and median of the registered ages.
func (a *App) Stats(ctx context.Context) error {
	recs, err := a.deps.Records.Load(ctx)
	if err != nil {
		return err
	}
	st, err := a.deps.Stats.AgeStatistics(recs)
	if errors.Is(err, services.ErrInsufficientData) {
		a.println("Not enough data.")
		return nil
	}
	if err != nil {
		return err
	}
	a.printf("Mean: %.2f, Mode: %d, Median: %.2f (%d users)\n", st.Mean, st.Mode, st.Median, st.Count)
	return nil
}

// Courses prints the average score and attempt count of each course.
func (a *App) Courses(ctx context.Context) error {
	avgs, err := a.deps.Stats.CourseScoreAverages(ctx)
	if err != nil {
		return err
	}
	counts, err := a.deps.Stats.ParticipantsPerCourse(ctx)
	if err != nil {
		return err
	}
	if len(counts) == 0 {
		a.println("No quiz results yet.")
		return nil
	}

	names := make([]string, 0, len(counts))
	for c := range counts {
		names = append(names, c)
	}
	slices.SortFunc(names, func(x, y string) int { return strings.Compare(courseLabel(x), courseLabel(y)) })

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "COURSE\tAVERAGE (0-10)\tATTEMPTS")
	for _, c := range names {
		fmt.Fprintf(tw, "%s\t%.2f\t%d\n", courseLabel(c), avgs[c], counts[c])
	}
	return tw.Flush()
}

// Usage prints ages, access counts and time spent per masked user.
func (a *App) Usage(ctx context.Context) error {
	rows, err := a.deps.Stats.UsageReport(ctx)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		a.println("No records.")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "USER\tAGE\tACCESSES\tMINUTES")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%.1f\n", r.Label, age(r.Age), r.AccessCount, r.SessionHours*60)
	}
	return tw.Flush()
}

// Users lists the usernames that can log in.
func (a *App) Users(ctx context.Context) error {
	names, err := a.deps.Users.Usernames(ctx)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		a.println("No users registered.")
		return nil
	}
	for _, n := range names {
		a.println("-", n)
	}
	return nil
}

// Delete removes another user's account. Entering 0 cancels.
func (a *App) Delete(ctx context.Context) error {
	if err := a.Users(ctx); err != nil {
		return err
	}
	username, err := getSimpleText(a.reader, "Username to delete (0 to cancel)", a.out)
	if err != nil {
		return err
	}
	username = strings.TrimSpace(username)
	if username == "0" || username == "" {
		a.println("Cancelled.")
		return nil
	}
	if username == a.session.Username {
		return errors.New("use delete-account to remove your own account")
	}

	if err := a.deps.Records.Delete(ctx, username); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return fmt.Errorf("user %q not found", username)
		}
		return err
	}
	a.printf("User %q deleted.\n", username)
	return nil
}

func age(p *int) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprint(*p)
}
