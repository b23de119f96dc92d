package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/terra-clan/cyber-assessment/internal/assessment"
	"github.com/terra-clan/cyber-assessment/internal/config"
	"github.com/terra-clan/cyber-assessment/internal/delivery"
	"github.com/terra-clan/cyber-assessment/internal/models"
	"github.com/terra-clan/cyber-assessment/internal/questions"
	"github.com/terra-clan/cyber-assessment/internal/tui"
	"github.com/terra-clan/cyber-assessment/pkg/client"
)

// errAborted is returned when the respondent quits before the result
var errAborted = tui.ErrAborted

var takeCmd = &cobra.Command{
	Use:   "take",
	Short: "Take the assessment in the terminal",
	Long: `Walks through the questionnaire in an interactive terminal UI. Use the
arrow keys or option numbers to answer, left to go back, right to skip and
q to quit.

With --plain the questionnaire is read line by line from stdin instead. At
each question enter the option number, "b" to go back, an empty line to
skip or "q" to quit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTakeCmd(cmd)
	},
}

func init() {
	takeCmd.Flags().String("server", "", "Submit the result to a running server instead of sending mail directly")
	takeCmd.Flags().Bool("no-send", false, "Show the result without delivering the report")
	takeCmd.Flags().Bool("animate", true, "Count the score up before showing it")
	takeCmd.Flags().Bool("plain", false, "Read answers line by line instead of running the terminal UI")
}

func runTakeCmd(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	bank, err := loadBank(cmd, cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	server, _ := cmd.Flags().GetString("server")
	noSend, _ := cmd.Flags().GetBool("no-send")
	animate, _ := cmd.Flags().GetBool("animate")
	plain, _ := cmd.Flags().GetBool("plain")

	// Delivery goes through the local SMTP transport unless a server
	// submits it for us.
	var dispatcher assessment.Dispatcher
	if server == "" && !noSend {
		transport := delivery.NewSMTPTransport(cfg.SMTP, cfg.Delivery.Timeout)
		dispatcher = delivery.NewDispatcher(ctx, delivery.NewService(transport))
	}

	tick := time.Duration(0)
	if animate {
		tick = cfg.Server.ScoreTickInterval
	}

	out := cmd.OutOrStdout()
	var c *assessment.Controller
	if plain {
		c, err = runTake(bank, dispatcher, cmd.InOrStdin(), out, tick)
	} else {
		c, err = runTUI(bank, dispatcher, cmd.InOrStdin(), out, tick)
	}
	if err != nil {
		return err
	}

	switch {
	case server != "":
		return submitRemote(ctx, client.NewClient(server), c, out)
	case noSend:
		return nil
	default:
		return awaitDelivery(ctx, c, out, cfg.Delivery.Timeout)
	}
}

// runTUI drives a controller from the interactive terminal UI
func runTUI(bank *questions.Bank, dispatcher assessment.Dispatcher, in io.Reader, out io.Writer, tick time.Duration) (*assessment.Controller, error) {
	c, err := assessment.NewController(bank, dispatcher)
	if err != nil {
		return nil, err
	}
	if err := tui.Run(c, in, out, tick); err != nil {
		return nil, err
	}
	return c, nil
}

// runTake drives a controller from line-based input until the result step
func runTake(bank *questions.Bank, dispatcher assessment.Dispatcher, in io.Reader, out io.Writer, tick time.Duration) (*assessment.Controller, error) {
	c, err := assessment.NewController(bank, dispatcher)
	if err != nil {
		return nil, err
	}

	scanner := bufio.NewScanner(in)
	prompt := func(label string) (string, error) {
		fmt.Fprintf(out, "%s: ", label)
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return "", err
			}
			return "", errAborted
		}
		return strings.TrimSpace(scanner.Text()), nil
	}

	fmt.Fprintln(out, "Cybersecurity Assessment")
	fmt.Fprintln(out)

	var info models.RespondentInfo
	for _, field := range []struct {
		label string
		dst   *string
	}{
		{"Name", &info.Name},
		{"Email", &info.Email},
		{"Company", &info.Company},
		{"Position", &info.Position},
	} {
		v, err := prompt(field.label)
		if err != nil {
			return nil, err
		}
		*field.dst = v
	}

	if err := c.SetRespondent(info); err != nil {
		return nil, err
	}
	if err := c.Next(); err != nil {
		return nil, err
	}

	for c.Phase() == assessment.PhaseAnswering {
		q, _ := c.Current()

		fmt.Fprintf(out, "\nQuestion %d of %d (%.0f%%)\n%s\n", c.Step(), bank.Count(), c.Progress()*100, q.Text)
		selected, hasAnswer := c.Session().Answers.Get(q.ID)
		for i, o := range q.Options {
			marker := " "
			if hasAnswer && o.Weight == selected {
				marker = "*"
			}
			fmt.Fprintf(out, " %s%d) %s\n", marker, i+1, o.Label)
		}

		input, err := prompt("Answer")
		if err != nil {
			return nil, err
		}

		switch strings.ToLower(input) {
		case "q":
			return nil, errAborted
		case "b":
			c.Back()
			continue
		case "":
			if err := c.Next(); err != nil {
				return nil, err
			}
			continue
		}

		n, err := strconv.Atoi(input)
		if err != nil || n < 1 || n > len(q.Options) {
			fmt.Fprintf(out, "Enter a number between 1 and %d\n", len(q.Options))
			continue
		}

		if err := c.SelectAnswer(q.ID, q.Options[n-1].Weight); err != nil {
			return nil, err
		}
		if err := c.Next(); err != nil {
			return nil, err
		}
	}

	res, _ := c.Result()
	printResult(out, res, tick)
	return c, nil
}

func printResult(out io.Writer, res models.Result, tick time.Duration) {
	fmt.Fprintln(out)
	if tick > 0 {
		for v := 0; v != res.Score; {
			v = assessment.Tick(v, res.Score)
			fmt.Fprintf(out, "\rYour score: %d", v)
			time.Sleep(tick)
		}
		fmt.Fprintln(out)
	} else {
		fmt.Fprintf(out, "Your score: %d\n", res.Score)
	}
	fmt.Fprintln(out, res.Band.Summary)
}

func awaitDelivery(ctx context.Context, c *assessment.Controller, out io.Writer, limit time.Duration) error {
	pending := c.Delivery()
	if pending == nil {
		return nil
	}

	fmt.Fprintln(out, "Sending report...")

	waitCtx, cancel := context.WithTimeout(ctx, limit+5*time.Second)
	defer cancel()

	outcome, err := pending.Wait(waitCtx)
	if err != nil {
		return fmt.Errorf("report delivery did not settle: %w", err)
	}
	if !outcome.Succeeded() {
		return fmt.Errorf("failed to send assessment results: %s", outcome.Reason)
	}

	fmt.Fprintln(out, "Assessment results sent successfully")
	return nil
}

func submitRemote(ctx context.Context, api *client.Client, c *assessment.Controller, out io.Writer) error {
	s := c.Session()
	res, _ := c.Result()

	req := client.AssessmentRequest{
		PersonalInfo: client.PersonalInfo(s.Respondent),
		Score:        res.Score,
	}
	for _, a := range s.Answers.Entries() {
		req.Answers = append(req.Answers, client.Answer{QuestionID: a.QuestionID, Weight: a.Weight})
	}

	msg, err := api.SendAssessment(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to submit assessment: %w", err)
	}

	fmt.Fprintln(out, msg)
	return nil
}
