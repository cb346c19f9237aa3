package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/gaorsystempe-cpu/operacionesFeet/businesstime"
	"github.com/gaorsystempe-cpu/operacionesFeet/config"
	"github.com/gaorsystempe-cpu/operacionesFeet/models/reports"
	"github.com/gaorsystempe-cpu/operacionesFeet/utils"
	"github.com/gaorsystempe-cpu/operacionesFeet/workflow"
	"github.com/sirupsen/logrus"
)

func main() {
	now := businesstime.BusinessToday(time.Now())
	mode := flag.String("mode", "month", "Period mode: today, month, year or custom.")
	year := flag.Int("year", now.Year(), "Year for month/year modes.")
	month := flag.Int("month", int(now.Month()), "Month for month mode (1-12).")
	start := flag.String("start", "", "Custom mode start date (YYYY-MM-DD).")
	end := flag.String("end", "", "Custom mode end date (YYYY-MM-DD).")
	label := flag.String("label", "", "Optional: period label written on the summary sheet.")
	out := flag.String("out", "", "Optional: output file. Defaults to the report's standard file name.")
	timeout := flag.Duration("timeout", 10*time.Minute, "Overall time limit for the ERP round-trips.")
	flag.Parse()

	logger := config.GetLogger()

	period, err := businesstime.PeriodBounds(businesstime.Mode(*mode), businesstime.PeriodParams{
		Year:  *year,
		Month: *month - 1,
		Start: *start,
		End:   *end,
	}, time.Now())
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid period: %v\n", err)
		os.Exit(2)
	}

	settings := config.GetOdooSettings()
	if !settings.Configured() {
		fmt.Fprintln(os.Stderr, "ODOO_URL, ODOO_DB, ODOO_LOGIN and ODOO_API_KEY are required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	ctx = utils.SetTriggerInContext(ctx, "cli")

	sess, err := workflow.Login(ctx, settings)
	if err != nil {
		fmt.Fprintf(os.Stderr, "login failed: %v\n", err)
		os.Exit(1)
	}

	pipeline := workflow.NewPipeline(workflow.OdooConnector(settings), workflow.NewStore(), settings.OrderLimit)
	if err := pipeline.Fetch(ctx, sess, period); err != nil {
		fmt.Fprintf(os.Stderr, "reconcile failed: %v\n", err)
		os.Exit(1)
	}

	filename := *out
	if filename == "" {
		filename = reports.ExportFilename(period.Start, period.End)
	}
	wb := pipeline.Store.ExportRange(period.Start, period.End, *label)
	if err := reports.SaveExcel(wb, filename); err != nil {
		fmt.Fprintf(os.Stderr, "write %s: %v\n", filename, err)
		os.Exit(1)
	}

	snap := pipeline.Store.Snapshot()
	logger.WithFields(logrus.Fields{
		"file":   filename,
		"start":  period.Start,
		"end":    period.End,
		"lines":  snap.Count,
		"status": snap.Status,
	}).Info("reconcile export written")
}
