package app

import (
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

func (a *Application) initJob() {
	loc, _ := time.LoadLocation(a.appConfig.System.Location)
	a.sched = cron.New(cron.WithLocation(loc), cron.WithParser(cronParser))

	var err error

	// surface a dying session before an operator hits a failing request
	_, err = a.sched.AddFunc("@every 5m", func() {
		if _, err := a.gate.AccessToken(); err != nil {
			zap.L().Warn("operator session not usable, login required")
		}
	})
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}

	_, err = a.sched.AddFunc("@daily", func() {
		keep := time.Duration(a.appConfig.Export.KeepDays) * 24 * time.Hour
		if keep <= 0 {
			return
		}
		a.exporter.Prune(keep)
	})
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}
}
