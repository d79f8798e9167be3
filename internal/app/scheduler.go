package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/barberdesk/barberdesk/internal/domain"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/sftp"
	"go.uber.org/zap"
	"golang.org/x/crypto/ssh"
)

// Scheduler task types executed by the runner loop.
const (
	TaskAppointmentReminder     = "appointment_reminder"
	TaskAppointmentAutocomplete = "appointment_autocomplete"
	TaskCartExpiry              = "cart_expiry"
	TaskDatabaseBackup          = "database_backup"
)

// StartSchedulerService runs enabled schedulers periodically
func (a *Application) StartSchedulerService(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				a.runSchedulers()
			}
		}
	}()
}

// runSchedulers executes enabled schedulers whose next_run_at has passed
func (a *Application) runSchedulers() {
	var schedulers []domain.ShopScheduler
	a.gormDB.Where("status = ?", "enabled").Find(&schedulers)
	now := time.Now()
	for _, sched := range schedulers {
		if sched.NextRunAt.IsZero() || now.After(sched.NextRunAt) || now.Equal(sched.NextRunAt) {
			a.runSchedulerTask(&sched)
			a.gormDB.Model(&domain.ShopScheduler{}).Where("id = ?", sched.ID).
				Update("next_run_at", now.Add(time.Duration(sched.Interval)*time.Second))
		}
	}
}

func (a *Application) runSchedulerTask(sched *domain.ShopScheduler) {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Errorf("scheduler %s panic: %v", sched.TaskType, err)
		}
	}()

	switch sched.TaskType {
	case TaskAppointmentReminder:
		a.runAppointmentReminder(sched)
	case TaskAppointmentAutocomplete:
		a.runAppointmentAutocomplete(sched)
	case TaskCartExpiry:
		a.runCartExpiry(sched)
	case TaskDatabaseBackup:
		a.runDatabaseBackup(sched)
	default:
		// unsupported task type
	}
}

func (a *Application) finishScheduler(sched *domain.ShopScheduler, result, message string) {
	a.gormDB.Model(&domain.ShopScheduler{}).Where("id = ?", sched.ID).Updates(map[string]interface{}{
		"last_run_at":  time.Now(),
		"last_result":  result,
		"last_message": message,
	})
}

// runAppointmentReminder mails clients whose scheduled appointment starts
// within the configured window and has not been reminded yet.
func (a *Application) runAppointmentReminder(sched *domain.ShopScheduler) {
	hours := a.GetSettingsInt64Value("booking", "reminder_hours")
	if hours <= 0 {
		hours = 24
	}

	now := time.Now().UTC()
	horizon := now.Add(time.Duration(hours) * time.Hour)

	var appts []domain.Appointment
	err := a.gormDB.
		Where("status = ?", domain.AppointmentScheduled).
		Where("start_at > ? AND start_at <= ?", now, horizon).
		Where("reminded_at IS NULL").
		Find(&appts).Error
	if err != nil {
		a.finishScheduler(sched, "failed", err.Error())
		return
	}

	var sent int
	for _, appt := range appts {
		var user domain.User
		if err := a.gormDB.First(&user, appt.UserID).Error; err != nil {
			continue
		}
		if a.notifier != nil {
			a.notifier.SendReminder(&user, &appt)
		}
		a.gormDB.Model(&domain.Appointment{}).Where("id = ?", appt.ID).
			Update("reminded_at", time.Now())
		sent++
	}

	a.finishScheduler(sched, "success", fmt.Sprintf("%d reminders sent", sent))
}

// runAppointmentAutocomplete moves scheduled appointments to completed once
// their slot end plus the grace period has passed.
func (a *Application) runAppointmentAutocomplete(sched *domain.ShopScheduler) {
	grace := a.GetSettingsInt64Value("booking", "autocomplete_grace_minutes")
	if grace <= 0 {
		grace = 60
	}

	// slot end is start_at + duration_min, both tracked on the row
	cutoff := time.Now().UTC().Add(-time.Duration(grace) * time.Minute)

	res := a.gormDB.Model(&domain.Appointment{}).
		Where("status = ?", domain.AppointmentScheduled).
		Where("start_at + (duration_min * interval '1 minute') < ?", cutoff).
		Updates(map[string]interface{}{
			"status":     domain.AppointmentCompleted,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		a.finishScheduler(sched, "failed", res.Error.Error())
		return
	}

	a.finishScheduler(sched, "success", fmt.Sprintf("%d appointments completed", res.RowsAffected))
}

// runCartExpiry drops stale snapshots from the bbolt cart store. Redis carts
// expire through their TTL and need no sweep.
func (a *Application) runCartExpiry(sched *domain.ShopScheduler) {
	if a.boltCarts == nil {
		a.finishScheduler(sched, "success", "redis carts expire by TTL, nothing to sweep")
		return
	}

	hours := a.GetSettingsInt64Value("cart", "expiry_hours")
	if hours <= 0 {
		hours = 72
	}

	removed, err := a.boltCarts.ExpireBefore(time.Now().Add(-time.Duration(hours) * time.Hour))
	if err != nil {
		a.finishScheduler(sched, "failed", err.Error())
		return
	}

	a.finishScheduler(sched, "success", fmt.Sprintf("%d stale carts removed", removed))
}

// backupSftpConfig is the sftp upload section of sys_config.
type backupSftpConfig struct {
	Host     string `mapstructure:"sftp_host"`
	Port     int    `mapstructure:"sftp_port"`
	User     string `mapstructure:"sftp_user"`
	Password string `mapstructure:"sftp_password"`
	Dir      string `mapstructure:"sftp_dir"`
}

// runDatabaseBackup dumps the shop tables to a JSON file under the backup
// dir and uploads it via SFTP when a host is configured.
func (a *Application) runDatabaseBackup(sched *domain.ShopScheduler) {
	dump := map[string]interface{}{}

	var users []domain.User
	var products []domain.Product
	var services []domain.Service
	var appts []domain.Appointment
	var orders []domain.Order
	var items []domain.OrderItem

	a.gormDB.Find(&users)
	a.gormDB.Find(&products)
	a.gormDB.Find(&services)
	a.gormDB.Find(&appts)
	a.gormDB.Find(&orders)
	a.gormDB.Find(&items)

	dump["users"] = users
	dump["products"] = products
	dump["services"] = services
	dump["appointments"] = appts
	dump["orders"] = orders
	dump["order_items"] = items
	dump["dumped_at"] = time.Now()

	data, err := jsoniter.Marshal(dump)
	if err != nil {
		a.finishScheduler(sched, "failed", err.Error())
		return
	}

	backupDir := a.appConfig.GetBackupDir()
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		a.finishScheduler(sched, "failed", err.Error())
		return
	}

	filename := fmt.Sprintf("barberdesk-%s.json", time.Now().Format("20060102-150405"))
	localPath := filepath.Join(backupDir, filename)
	if err := os.WriteFile(localPath, data, 0o600); err != nil {
		a.finishScheduler(sched, "failed", err.Error())
		return
	}

	var sftpCfg backupSftpConfig
	if err := a.configManager.GetStruct("backup", &sftpCfg); err != nil {
		zap.L().Warn("invalid backup settings, keeping backup local", zap.Error(err))
	}

	if sftpCfg.Host == "" {
		a.finishScheduler(sched, "success", fmt.Sprintf("backup written to %s", localPath))
		return
	}

	if err := uploadBackup(sftpCfg, localPath, filename); err != nil {
		a.finishScheduler(sched, "failed", fmt.Sprintf("backup written to %s, upload failed: %v", localPath, err))
		return
	}

	a.finishScheduler(sched, "success", fmt.Sprintf("backup written to %s and uploaded to %s", localPath, sftpCfg.Host))
}

func uploadBackup(cfg backupSftpConfig, localPath, filename string) error {
	port := cfg.Port
	if port == 0 {
		port = 22
	}

	conn, err := ssh.Dial("tcp", fmt.Sprintf("%s:%d", cfg.Host, port), &ssh.ClientConfig{
		User:            cfg.User,
		Auth:            []ssh.AuthMethod{ssh.Password(cfg.Password)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), //nolint:gosec // backup target is operator configured
		Timeout:         15 * time.Second,
	})
	if err != nil {
		return err
	}
	defer conn.Close()

	client, err := sftp.NewClient(conn)
	if err != nil {
		return err
	}
	defer client.Close()

	if cfg.Dir != "" {
		_ = client.MkdirAll(cfg.Dir)
	}

	src, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := client.Create(filepath.Join(cfg.Dir, filename))
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = dst.ReadFrom(src)
	return err
}
