package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/aws/aws-xray-sdk-go/xray"
	"github.com/uma-arai/sbcntr-hotel/internal/common/config"
	"github.com/uma-arai/sbcntr-hotel/internal/common/utils"
	"github.com/uma-arai/sbcntr-hotel/internal/service/batch"
)

const (
	projectName = "sbcntr-hotel-notification-batch"
)

func main() {
	// コマンドライン引数のパース
	timeout := flag.Duration("timeout", 5*time.Minute, "バッチ処理のタイムアウト時間")
	flag.Parse()

	// 最後の引数として渡されたタスクトークンを取得
	// 通知バッチのタスクトークンは予約バッチが出力した通知のJSONです
	if flag.NArg() == 0 {
		log.Fatalf("Task token is required")
	}
	taskToken := flag.Arg(flag.NArg() - 1)

	// 設定の読み込み
	cfg, err := config.LoadConfig(taskToken)
	if err != nil {
		log.Fatalf("Failed to load config: %v\nStack trace:\n%s", err, debug.Stack())
	}

	// X-Ray設定
	if cfg.EnableTracing {
		if err := xray.Configure(xray.Config{
			DaemonAddr:     "127.0.0.1:2000", // X-Rayデーモンのアドレス
			ServiceVersion: "1.0.0",
		}); err != nil {
			log.Printf("Failed to configure X-Ray: %v", err)
			// X-Ray設定失敗時はデフォルトの設定を使用
			if configErr := xray.Configure(xray.Config{}); configErr != nil {
				log.Fatalf("Failed to configure default X-Ray settings: %v", configErr)
			}
		}
		os.Setenv("AWS_XRAY_CONTEXT_MISSING", "LOG_ERROR")
	}

	// タスクトークンから通知データを生成
	notifications, err := batch.ParseNotifications(taskToken)
	if err != nil {
		log.Fatalf("Failed to generate notifications: %v", err)
	}

	// コンテキストを作成
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// X-Rayセグメントの作成
	ctx, seg := xray.BeginSegment(ctx, projectName)
	defer seg.Close(nil)
	if cfg.EnableTracing {
		// セグメントにメタデータを追加
		if err := seg.AddMetadata("timeout", timeout.String()); err != nil {
			log.Printf("Failed to add timeout metadata: %v", err)
		}
	}

	// 通知バッチサービスを作成
	service, err := batch.NewNotificationBatchService(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create notification batch service: %v", err)
	}
	defer service.Close()

	service.SetArgs(notifications)

	// シグナルハンドリング
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// バッチ処理の実行
	errChan := make(chan error, 1)
	go func() {
		errChan <- utils.RunWithTimeout(ctx, *timeout, service.Run)
	}()

	// シグナルを待機
	select {
	case sig := <-sigChan:
		log.Printf("Received signal: %v", sig)
		cancel()
	case err := <-errChan:
		if err != nil {
			log.Printf("Batch process failed: %v", err)
			os.Exit(1)
		}
		log.Println("Batch process completed successfully")
	}
}
