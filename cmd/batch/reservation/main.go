package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"runtime/debug"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sfn"
	"github.com/aws/aws-xray-sdk-go/xray"
	"github.com/uma-arai/sbcntr-hotel/internal/common/config"
	"github.com/uma-arai/sbcntr-hotel/internal/common/utils"
	"github.com/uma-arai/sbcntr-hotel/internal/model"
	"github.com/uma-arai/sbcntr-hotel/internal/service/batch"
)

const (
	projectName = "sbcntr-hotel-reservation-batch"
)

func main() {
	// コマンドライン引数のパース
	timeout := flag.Duration("timeout", 5*time.Minute, "バッチ処理のタイムアウト時間")
	state := flag.String("state", string(model.StateReserved), "集計対象の予約の状態 (Reserved, Checked-In, Checked-Out)")
	flag.Parse()

	// 最後の引数として渡されたタスクトークンを取得
	// ENV=LOCALの場合はタスクトークンを取得しない
	taskToken := "DUMMY_TASK_TOKEN"
	if os.Getenv("ENV") != "LOCAL" {
		if flag.NArg() == 0 || flag.Arg(flag.NArg()-1) == "" {
			log.Fatalf("Task token is required")
		}
		taskToken = flag.Arg(flag.NArg() - 1)
	}

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

	// Step Functionsクライアントの初期化
	var sfnClient *sfn.Client
	if !cfg.Local {
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background())
		if err != nil {
			log.Fatalf("Failed to load AWS config: %v\nStack trace:\n%s", err, debug.Stack())
		}
		sfnClient = sfn.NewFromConfig(awsCfg)
	}

	// コンテキストの作成
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	// X-Rayセグメントの作成
	// 無効時もサブセグメントの親となるセグメントを作成する
	ctx, seg := xray.BeginSegment(ctx, projectName)
	defer seg.Close(nil)
	if cfg.EnableTracing {
		// セグメントにメタデータを追加
		if err := seg.AddMetadata("timeout", timeout.String()); err != nil {
			log.Printf("Failed to add timeout metadata: %v", err)
		}
		if err := seg.AddMetadata("state", *state); err != nil {
			log.Printf("Failed to add state metadata: %v", err)
		}
	}

	// サービスの初期化
	service, err := batch.NewReservationBatchService(ctx, cfg, sfnClient)
	if err != nil {
		log.Fatalf("Failed to create service: %v\nStack trace:\n%s", err, debug.Stack())
	}
	defer service.Close()

	if err := service.SetState(model.ReservationState(*state)); err != nil {
		log.Fatalf("Invalid -state flag: %v", err)
	}

	// シグナルハンドリングの設定
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// バッチ処理の実行
	errChan := make(chan error, 1)
	go func() {
		errChan <- utils.RunWithTimeout(ctx, *timeout, service.Run)
	}()

	// シグナルまたはエラーの待機
	select {
	case sig := <-sigChan:
		log.Printf("Received signal: %v", sig)
		cancel()
	case err := <-errChan:
		if err != nil {
			log.Printf("Batch process failed: %v", err)

			// ローカル環境以外の場合のみStep Functionsのエラー通知を行う
			if !cfg.Local && sfnClient != nil {
				input := &sfn.SendTaskFailureInput{
					TaskToken: aws.String(taskToken),
					Error:     aws.String("Batch process failed"),
					Cause:     aws.String(err.Error()),
				}

				// タイムアウト済みのコンテキストでは通知できないため新しく作成する
				failCtx, failCancel := context.WithTimeout(context.Background(), 10*time.Second)
				_, err := sfnClient.SendTaskFailure(failCtx, input)
				failCancel()
				if err != nil {
					log.Printf("Failed to send task failure: %v\nStack trace:\n%s", err, debug.Stack())
				}
			}

			os.Exit(1)
		}
		log.Println("Batch process completed successfully")
	}
}
