package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"

	"resume-parser-go/internal/bootstrap"
	"resume-parser-go/internal/config"
	"resume-parser-go/internal/logger"
	"resume-parser-go/internal/storage"
)

// 命令行参数定义
var (
	configPath = pflag.StringP("config", "c", "", "配置文件路径")
	filePath   = pflag.StringP("file", "f", "", "简历文件路径 (必填)")
	userID     = pflag.StringP("user", "u", "", "用户ID，--persist 时必填")
	persist    = pflag.Bool("persist", false, "将结果写入配置的文档存储")
	textOnly   = pflag.Bool("text", false, "只输出提取的纯文本")
	maxLen     = pflag.Int("maxlen", -1, "--text 模式下显示的最大长度，-1 显示全部")
	timeout    = pflag.Duration("timeout", 60*time.Second, "整体超时")
)

func main() {
	pflag.Parse()

	if *filePath == "" {
		fail("必须提供简历文件路径 (--file)")
	}
	if *persist && *userID == "" {
		fail("--persist 需要 --user")
	}

	// 不写入存储时不需要存储凭据
	if !*persist {
		_ = os.Setenv("RESUME_STORE_DRIVER", config.StoreDriverMemory)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fail("加载配置失败: %v", err)
	}
	logger.InitWithWriter(logger.Config{
		Level:      cfg.Logger.Level,
		Format:     "pretty",
		TimeFormat: "15:04:05",
	}, os.Stderr)

	data, err := os.ReadFile(*filePath)
	if err != nil {
		fail("读取文件失败: %v", err)
	}
	filename := filepath.Base(*filePath)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if *textOnly {
		printText(ctx, cfg, data, filename)
		return
	}

	var store *storage.Storage
	if *persist {
		store, err = storage.NewStorage(ctx, cfg)
		if err != nil {
			fail("初始化存储失败: %v", err)
		}
		defer store.Close()
	}

	pipeline, err := bootstrap.NewPipeline(ctx, cfg, store)
	if err != nil {
		fail("初始化解析流程失败: %v", err)
	}

	start := time.Now()
	if *persist {
		res, err := pipeline.Process(ctx, *userID, data, filename)
		if err != nil {
			fail("处理失败: %v", err)
		}
		printJSON(res)
		logger.Info().Str("document_path", res.DocumentPath).Dur("duration", time.Since(start)).Msg("结果已写入")
		return
	}

	res, err := pipeline.Parse(ctx, data, filename)
	if err != nil {
		fail("解析失败: %v", err)
	}
	printJSON(res.Record)
	logger.Info().Int("text_len", res.TextLength).Int("token_count", res.TokenCount).Dur("duration", time.Since(start)).Msg("解析完成")
}

func printText(ctx context.Context, cfg *config.Config, data []byte, filename string) {
	extractor, err := bootstrap.NewTextExtractor(ctx, cfg)
	if err != nil {
		fail("创建文本提取器失败: %v", err)
	}
	text, metadata, err := extractor.ExtractText(ctx, data, filename)
	if err != nil {
		fail("提取文本失败: %v", err)
	}

	fmt.Printf("===== 提取的文本 (总计 %d 字符) =====\n", len(text))
	if *maxLen >= 0 && len(text) > *maxLen {
		fmt.Println(text[:*maxLen])
		fmt.Printf("...(已截断，剩余 %d 字符)\n", len(text)-*maxLen)
	} else {
		fmt.Println(text)
	}
	fmt.Println("===== 元数据 =====")
	printJSON(metadata)
}

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fail("输出JSON失败: %v", err)
	}
}

func fail(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "错误: "+format+"\n", args...)
	os.Exit(1)
}
