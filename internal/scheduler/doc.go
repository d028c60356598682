// Package scheduler запускает периодическую уборку файлов-сирот.
//
// Структура:
//   - scheduler.go — цикл Run и одиночный Tick
//   - cron.go      — парсинг cron-выражений и вычисление следующего запуска
//
// Использование:
//
//	sched := scheduler.New(scheduler.Config{
//	    Sweeper:  collector,
//	    CronExpr: "0 */6 * * *",
//	    Logger:   logger,
//	})
//	if err := sched.Run(ctx); err != nil { ... }
//
// Уборка идемпотентна, поэтому несколько экземпляров sweeper
// безопасны — они лишь сделают лишнюю работу.
package scheduler
