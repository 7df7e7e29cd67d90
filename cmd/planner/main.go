package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Dreamstarlake/EduNexus/config"
	"github.com/Dreamstarlake/EduNexus/internal/calendar"
	"github.com/Dreamstarlake/EduNexus/internal/client"
	applogger "github.com/Dreamstarlake/EduNexus/pkg/logger"
)

// app 命令共享状态，由 PersistentPreRunE 初始化
type app struct {
	configPath string
	verbose    bool
	reminders  bool

	planner *client.Planner
	logger  *zap.Logger
}

func main() {
	a := &app{}
	if err := a.rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "planner",
		Short:         "EduNexus course planner",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.planner != nil {
				a.planner.Close()
			}
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "配置文件路径（默认搜索 ./config.yaml）")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "输出调试日志")

	root.AddCommand(
		a.registerCmd(),
		a.loginCmd(),
		a.logoutCmd(),
		a.whoamiCmd(),
		a.listCmd(),
		a.addCmd(),
		a.updateCmd(),
		a.deleteCmd(),
		a.weekCmd(),
		a.monthCmd(),
		a.watchCmd(),
	)
	return root
}

func (a *app) init() error {
	cfg, err := config.LoadPlanner(a.configPath)
	if err != nil {
		return err
	}

	logCfg := config.LogConfig{Level: "warn", Format: "console", OutputPaths: []string{"stderr"}}
	if a.verbose {
		logCfg.Level = "debug"
	}
	if a.logger, err = applogger.NewLogger(&logCfg); err != nil {
		return err
	}

	tokenFile := cfg.Planner.TokenFile
	if tokenFile == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return fmt.Errorf("无法确定凭证目录: %w", err)
		}
		tokenFile = filepath.Join(dir, "edunexus", "token")
	}

	a.planner, err = client.New(client.Options{
		BaseURL:      cfg.Planner.APIBaseURL,
		Timeout:      cfg.Planner.RequestTimeout,
		TokenFile:    tokenFile,
		Window:       calendar.DayWindow{StartHour: cfg.Planner.DayStartHour, EndHour: cfg.Planner.DayEndHour},
		MaxDots:      cfg.Planner.MaxDots,
		NoticeTTL:    cfg.Planner.NoticeTTL,
		ReminderLead: cfg.Planner.ReminderLead,
		Notifier:     &terminalNotifier{out: os.Stdout, enabled: &a.reminders},
		Logger:       a.logger,
	})
	return err
}

// finish 打印当前提示并返回错误
func (a *app) finish(err error) error {
	if n, ok := a.planner.Notice(); ok {
		fmt.Println(renderNotice(n))
	} else if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	return err
}

// requireLogin 未登录时给出提示
func (a *app) requireLogin(ctx context.Context) error {
	if !a.planner.LoggedIn() {
		return errors.New("not logged in, run `planner login` first")
	}
	return a.planner.Start(ctx)
}

// ═══════════════════════════════════════════════════════════
// 认证
// ═══════════════════════════════════════════════════════════

func (a *app) registerCmd() *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.finish(a.planner.Register(cmd.Context(), username, password))
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "用户名")
	cmd.Flags().StringVarP(&password, "password", "p", "", "密码（至少 6 位）")
	return cmd
}

func (a *app) loginCmd() *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and cache the session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.finish(a.planner.Login(cmd.Context(), username, password))
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "用户名")
	cmd.Flags().StringVarP(&password, "password", "p", "", "密码")
	return cmd
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke and forget the session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			a.planner.Logout(cmd.Context())
			return a.finish(nil)
		},
	}
}

func (a *app) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.planner.LoggedIn() {
				fmt.Println("Not logged in.")
				return nil
			}
			fmt.Println(a.planner.Username())
			return nil
		},
	}
}

// ═══════════════════════════════════════════════════════════
// 课程
// ═══════════════════════════════════════════════════════════

func (a *app) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List courses in server order",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLogin(cmd.Context()); err != nil {
				return a.finish(err)
			}
			fmt.Println(renderList(a.planner.Courses()))
			return nil
		},
	}
}

// courseFlags 新增与编辑共用的表单参数
type courseFlags struct {
	name, start, end, color, instructor, location string
	day                                           int
}

func (f *courseFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "课程名称")
	cmd.Flags().StringVar(&f.start, "start", "", "开始时间 HH:MM")
	cmd.Flags().StringVar(&f.end, "end", "", "结束时间 HH:MM")
	cmd.Flags().IntVar(&f.day, "day", 0, "星期（0=Sunday … 6=Saturday）")
	cmd.Flags().StringVar(&f.color, "color", "", "显示颜色，如 #4A90E2")
	cmd.Flags().StringVar(&f.instructor, "instructor", "", "授课教师")
	cmd.Flags().StringVar(&f.location, "location", "", "上课地点")
}

// overlay 以显式传入的参数覆盖 base
func (f *courseFlags) overlay(cmd *cobra.Command, base client.CourseInput) client.CourseInput {
	set := func(name string) bool { return cmd.Flags().Changed(name) }
	if set("name") {
		base.Name = f.name
	}
	if set("start") {
		base.StartTime = f.start
	}
	if set("end") {
		base.EndTime = f.end
	}
	if set("day") {
		base.DayOfWeek = f.day
	}
	if set("color") {
		base.Color = f.color
	}
	if set("instructor") {
		base.Instructor = f.instructor
	}
	if set("location") {
		base.Location = f.location
	}
	return base
}

func (a *app) addCmd() *cobra.Command {
	var f courseFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a weekly course",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLogin(cmd.Context()); err != nil {
				return a.finish(err)
			}
			_, err := a.planner.AddCourse(cmd.Context(), f.overlay(cmd, client.CourseInput{}))
			return a.finish(err)
		},
	}
	f.bind(cmd)
	// 0 是合法的星期日，缺省值无法区分“未填写”
	_ = cmd.MarkFlagRequired("day")
	return cmd
}

func (a *app) updateCmd() *cobra.Command {
	var f courseFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit a course; omitted flags keep their current values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLogin(cmd.Context()); err != nil {
				return a.finish(err)
			}
			current, ok := a.planner.Course(args[0])
			if !ok {
				return a.finish(fmt.Errorf("course %s not found", args[0]))
			}
			base := client.CourseInput{
				Name:       current.Name,
				StartTime:  current.StartTime,
				EndTime:    current.EndTime,
				DayOfWeek:  current.DayOfWeek,
				Color:      current.Color,
				Instructor: current.Instructor,
				Location:   current.Location,
			}
			_, err := a.planner.UpdateCourse(cmd.Context(), args[0], f.overlay(cmd, base))
			return a.finish(err)
		},
	}
	f.bind(cmd)
	return cmd
}

func (a *app) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a course",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLogin(cmd.Context()); err != nil {
				return a.finish(err)
			}
			return a.finish(a.planner.DeleteCourse(cmd.Context(), args[0]))
		},
	}
}

// ═══════════════════════════════════════════════════════════
// 视图
// ═══════════════════════════════════════════════════════════

func (a *app) weekCmd() *cobra.Command {
	var offset int
	cmd := &cobra.Command{
		Use:   "week",
		Short: "Show the week view",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLogin(cmd.Context()); err != nil {
				return a.finish(err)
			}
			a.planner.SwitchTo(calendar.ViewWeek)
			step(offset, a.planner.NextWeek, a.planner.PrevWeek)
			fmt.Println(renderView(a.planner.Render()))
			return nil
		},
	}
	cmd.Flags().IntVarP(&offset, "offset", "o", 0, "相对本周的偏移（-1 上周，1 下周）")
	return cmd
}

func (a *app) monthCmd() *cobra.Command {
	var offset int
	cmd := &cobra.Command{
		Use:   "month",
		Short: "Show the month view",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLogin(cmd.Context()); err != nil {
				return a.finish(err)
			}
			a.planner.SwitchTo(calendar.ViewMonth)
			step(offset, a.planner.NextMonth, a.planner.PrevMonth)
			fmt.Println(renderView(a.planner.Render()))
			return nil
		},
	}
	cmd.Flags().IntVarP(&offset, "offset", "o", 0, "相对本月的偏移")
	return cmd
}

// watchCmd 常驻运行，发出当天课程提醒直到收到退出信号
func (a *app) watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stay running and print reminders for today's courses",
		RunE: func(cmd *cobra.Command, args []string) error {
			a.reminders = true
			if err := a.requireLogin(cmd.Context()); err != nil {
				return a.finish(err)
			}
			n := a.planner.Reminders().Pending()
			fmt.Printf("%d reminder(s) scheduled for today. Press Ctrl+C to stop.\n", n)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()
			return nil
		},
	}
	return cmd
}

func step(n int, next, prev func()) {
	for ; n > 0; n-- {
		next()
	}
	for ; n < 0; n++ {
		prev()
	}
}
