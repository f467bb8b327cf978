package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/josinaldojr/contract-intel-rag/internal/config"
	"github.com/josinaldojr/contract-intel-rag/internal/db"
	"github.com/josinaldojr/contract-intel-rag/internal/extract"
	"github.com/josinaldojr/contract-intel-rag/internal/llm"
	"github.com/josinaldojr/contract-intel-rag/internal/rag"
)

func main() {
	pathFlag := flag.String("path", "", "diretório base com os documentos (.md/.txt/.html/.pdf)")
	partnerFlag := flag.String("partner", "", "força o partner em todos os documentos (opcional)")
	typeFlag := flag.String("type", "", "força o tipo: contract ou payout_report (opcional)")
	flag.Parse()

	if *pathFlag == "" {
		log.Fatal("obrigatório: --path")
	}

	docType := rag.DocType(*typeFlag)
	switch docType {
	case "", rag.DocTypeContract, rag.DocTypePayoutReport:
	default:
		log.Fatalf("tipo inválido: %q (use contract ou payout_report)", *typeFlag)
	}

	ctx := context.Background()
	cfg := config.Load()
	pool := db.NewPool(ctx, cfg.DatabaseURL)
	defer pool.Close()

	store := rag.NewPgStore(pool)

	geminiClient, err := llm.NewGeminiClient(ctx)
	if err != nil {
		log.Fatalf("erro ao iniciar Gemini: %v", err)
	}

	svc := rag.NewService(store, geminiClient, geminiClient, rag.ServiceConfig{
		ChunkSize:    cfg.ChunkSize,
		ChunkOverlap: cfg.ChunkOverlap,
	})

	if err := importFromFiles(ctx, svc, *pathFlag, *partnerFlag, docType); err != nil {
		log.Fatalf("erro importando arquivos: %v", err)
	}

	log.Println("✅ Importação concluída.")
}

func importFromFiles(ctx context.Context, svc *rag.Service, rootPath, partner string, docType rag.DocType) error {
	log.Printf("📂 Importando documentos de %s", rootPath)

	return filepath.WalkDir(rootPath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isSupportedFile(path) {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			log.Printf("erro lendo %s: %v", path, err)
			return nil
		}

		text, degraded, err := extract.Text(data, path)
		if err != nil {
			log.Printf("erro extraindo texto de %s: %v", path, err)
			return nil
		}
		if strings.TrimSpace(text) == "" {
			log.Printf("sem texto extraível em %s, pulando", path)
			return nil
		}
		if degraded {
			log.Printf("⚠️ extração degradada em %s", path)
		}

		res, err := svc.IndexDocument(ctx, rag.Document{
			Filename: filepath.Base(path),
			Partner:  partner,
			Type:     docType,
			Text:     text,
		})
		if err != nil {
			log.Printf("erro indexando %s: %v", path, err)
			return nil
		}

		log.Printf("✅ indexado doc=%s partner=%s type=%s chunks=%d flags=%v",
			res.DocumentID, res.Partner, res.Type, res.ChunkCount, res.Flags)
		return nil
	})
}

func isSupportedFile(path string) bool {
	l := strings.ToLower(path)
	return strings.HasSuffix(l, ".md") ||
		strings.HasSuffix(l, ".txt") ||
		strings.HasSuffix(l, ".html") ||
		strings.HasSuffix(l, ".htm") ||
		strings.HasSuffix(l, ".pdf")
}
