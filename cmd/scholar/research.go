package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spetersoncode/scholar/research"
)

var (
	researchAnalysts int
	researchThread   string
	researchOutput   string
	resumeFeedback   string
)

var researchCmd = &cobra.Command{
	Use:   "research <topic>",
	Short: "Generate analysts, review them, and write a report",
	Long: `Research generates a set of analyst personas for the topic and asks for
feedback on them. Enter feedback to regenerate the set or press enter to
approve it; the approved analysts are interviewed in parallel and the
report is written to the output file.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResearch,
}

var resumeCmd = &cobra.Command{
	Use:   "resume <thread>",
	Short: "Continue a research run waiting for analyst approval",
	Long: `Resume applies feedback to a run suspended at analyst approval. Empty
feedback approves the analysts and completes the run. Runs only survive
the process with a persistent store (redis, sqlite or postgres).`,
	Args: cobra.ExactArgs(1),
	RunE: runResume,
}

func init() {
	researchCmd.Flags().IntVar(&researchAnalysts, "analysts", 0, "Maximum number of analysts (default from config)")
	researchCmd.Flags().StringVar(&researchThread, "thread", "", "Thread ID (default: generated)")
	researchCmd.Flags().StringVarP(&researchOutput, "output", "o", "", "Report file (default from config)")

	resumeCmd.Flags().StringVar(&resumeFeedback, "feedback", "", "Feedback on the analysts; empty approves them")
	resumeCmd.Flags().StringVarP(&researchOutput, "output", "o", "", "Report file (default from config)")
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runResearch(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx, cfg, logger, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	topic := strings.Join(args, " ")
	thread := researchThread
	if thread == "" {
		thread = uuid.NewString()
	}
	analysts := researchAnalysts
	if analysts <= 0 {
		analysts = cfg.MaxAnalysts
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Thread: %s\n", thread)

	state, err := a.pipeline.Start(ctx, thread, topic, analysts)
	reader := bufio.NewReader(cmd.InOrStdin())
	for research.IsAwaitingApproval(err) {
		printAnalysts(out, state.Analysts)
		feedback, rerr := prompt(out, reader, "Feedback (press enter to approve): ")
		if rerr != nil && !errors.Is(rerr, io.EOF) {
			return fmt.Errorf("read feedback: %w", rerr)
		}
		state, err = a.pipeline.Resume(ctx, thread, feedback)
	}
	if err != nil {
		return err
	}
	return a.saveReport(out, state)
}

func runResume(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx, cfg, logger, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	state, err := a.pipeline.Resume(ctx, args[0], resumeFeedback)
	if research.IsAwaitingApproval(err) {
		printAnalysts(out, state.Analysts)
		fmt.Fprintf(out, "Run %s is waiting for approval again.\n", args[0])
		return nil
	}
	if err != nil {
		return err
	}
	return a.saveReport(out, state)
}

func (a *app) saveReport(out io.Writer, state *research.State) error {
	path := researchOutput
	if path == "" {
		path = a.cfg.ReportPath
	}
	if err := os.WriteFile(path, []byte(state.FinalReport), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	for _, f := range state.Failures {
		a.logger.Warn("interview missing from report", zap.String("analyst", f.Analyst.Name), zap.String("error", f.Message))
	}
	fmt.Fprintf(out, "\n%s\n\nReport written to %s\n", state.FinalReport, path)
	return nil
}

func printAnalysts(w io.Writer, analysts []research.Analyst) {
	fmt.Fprintln(w)
	for i, an := range analysts {
		fmt.Fprintf(w, "%d. %s\n", i+1, an.Name)
		fmt.Fprintf(w, "   Affiliation: %s\n", an.Affiliation)
		fmt.Fprintf(w, "   Role: %s\n", an.Role)
		fmt.Fprintf(w, "   Description: %s\n", an.Description)
		fmt.Fprintln(w, strings.Repeat("-", 50))
	}
}

// prompt reads one line. io.EOF is returned only when the input ended
// before any text.
func prompt(w io.Writer, r *bufio.Reader, label string) (string, error) {
	fmt.Fprint(w, label)
	line, err := r.ReadString('\n')
	if errors.Is(err, io.EOF) && line != "" {
		err = nil
	}
	return strings.TrimSpace(line), err
}
