package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"timewise/backend/config"
	"timewise/backend/internal/model"
	"timewise/backend/pkg/jwt"
	"timewise/backend/pkg/redis"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "tokengen",
	Short: "TimeWise 运维工具",
	Long:  "tokengen 使用服务端相同的配置签发、吊销访问令牌，并可订阅课表变更事件。",
}

var issueCmd = &cobra.Command{
	Use:   "issue",
	Short: "签发访问令牌",
	RunE:  runIssue,
}

var revokeCmd = &cobra.Command{
	Use:   "revoke <token>",
	Short: "吊销访问令牌（需要 Redis）",
	Args:  cobra.ExactArgs(1),
	RunE:  runRevoke,
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "打印课表变更事件（需要 Redis）",
	RunE:  runEvents,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "配置文件路径")

	issueCmd.Flags().String("user", "", "用户 ID")
	issueCmd.Flags().String("name", "", "展示名（写入审计记录）")
	issueCmd.Flags().String("role", model.RoleFaculty, "角色：admin / faculty / student")
	issueCmd.Flags().Duration("ttl", 0, "有效期，0 表示使用 auth.access_token_ttl")
	_ = issueCmd.MarkFlagRequired("user")

	rootCmd.AddCommand(issueCmd)
	rootCmd.AddCommand(revokeCmd)
	rootCmd.AddCommand(eventsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runIssue(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	user, _ := cmd.Flags().GetString("user")
	name, _ := cmd.Flags().GetString("name")
	role, _ := cmd.Flags().GetString("role")
	ttl, _ := cmd.Flags().GetDuration("ttl")

	if !model.IsValidRole(role) {
		return fmt.Errorf("未知角色: %s", role)
	}

	token, err := jwt.NewManager(&cfg.Auth).GenerateAccessToken(user, name, role, ttl)
	if err != nil {
		return fmt.Errorf("签发令牌失败: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}

func runRevoke(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	claims, err := jwt.NewManager(&cfg.Auth).ParseToken(args[0])
	if err != nil {
		return fmt.Errorf("解析令牌失败: %w", err)
	}

	rdb, err := redis.NewClient(&cfg.Redis, zap.NewNop())
	if err != nil {
		return err
	}
	defer rdb.Close()

	ttl := time.Until(claims.ExpiresAt.Time)
	if err := rdb.BlacklistToken(cmd.Context(), claims.ID, ttl); err != nil {
		return fmt.Errorf("吊销令牌失败: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "已吊销 %s（用户 %s，剩余 %s）\n", claims.ID, claims.UserID, ttl.Round(time.Second))
	return nil
}

func runEvents(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	rdb, err := redis.NewClient(&cfg.Redis, zap.NewNop())
	if err != nil {
		return err
	}
	defer rdb.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sub := rdb.Subscribe(ctx)
	defer sub.Close()

	fmt.Fprintf(cmd.ErrOrStderr(), "订阅 %s，Ctrl+C 退出\n", cfg.Redis.EventsChannel)
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg.Payload)
		}
	}
}
