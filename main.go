package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/paradiselovin/radiotherapy-data-hub/config"
	"github.com/paradiselovin/radiotherapy-data-hub/models"
	"github.com/paradiselovin/radiotherapy-data-hub/services"
	"github.com/paradiselovin/radiotherapy-data-hub/storage"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

var (
	submissionsCounter  prometheus.Counter
	submissionFailures  prometheus.Counter
	orphansSweptCounter prometheus.Counter
)

func init() {
	submissionsCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "complete_submissions_total",
			Help: "Total number of committed complete submissions.",
		},
	)
	submissionFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "complete_submission_failures_total",
			Help: "Total number of rolled-back complete submissions.",
		},
	)
	orphansSweptCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "orphan_files_swept_total",
			Help: "Total number of orphaned upload files removed by the sweeper.",
		},
	)
	prometheus.MustRegister(submissionsCounter, submissionFailures, orphansSweptCounter)
}

func apiKeyAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.APISecretKey == "" {
			c.Next()
			return
		}
		apiKey := c.GetHeader("X-API-KEY")
		if apiKey != cfg.APISecretKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid API Key"})
			return
		}
		c.Next()
	}
}

// statusForError mappt die Service-Fehlerklassen auf HTTP-Statuscodes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func main() {
	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("Config load error", zap.Error(err))
	}

	// Setup Database Connection
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		logging.Fatal("Failed to connect to database", zap.Error(err))
	}
	logging.Info("Successfully connected to dosimetry database.")

	// Auto-Migration
	logging.Info("Running database auto-migration...")
	if err := db.AutoMigrate(
		&models.Article{},
		&models.Experience{},
		&models.Machine{},
		&models.Detector{},
		&models.Phantom{},
		&models.ExperienceMachine{},
		&models.ExperienceDetector{},
		&models.ExperiencePhantom{},
		&models.DataRecord{},
		&models.ColumnMapping{},
	); err != nil {
		logging.Fatal("Auto-migration failed", zap.Error(err))
	}

	// Setup Upload Store
	store, err := storage.NewUploadStore(cfg.UploadDir)
	if err != nil {
		logging.Fatal("Upload store creation failed", zap.Error(err))
	}

	// Setup Services
	submissionService := services.NewSubmissionService(cfg, db, store, logging)
	sweeper := services.NewSweeper(db, store, logging, time.Duration(cfg.SweepGraceMinutes)*time.Minute)

	// Setup Router
	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(apiKeyAuthMiddleware(cfg))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "API running"})
	})

	// Setup Routes
	setupSubmissionRoutes(router, submissionService, logging)
	setupArticleRoutes(router, db, logging)
	setupExperienceRoutes(router, db, store, logging)
	setupMachineRoutes(router, db, logging)
	setupDetectorRoutes(router, db, logging)
	setupPhantomRoutes(router, db, logging)
	setupLinkRoutes(router, db, logging)
	setupDataRoutes(router, submissionService, db, logging)

	// Setup Cron
	cronScheduler := cron.New()
	cronScheduler.AddFunc(cfg.SweepSchedule, func() {
		logging.Info("Running scheduled orphan sweep...")
		count, err := sweeper.Sweep(context.Background())
		if err != nil {
			logging.Error("Orphan sweep failed", zap.Error(err))
		} else {
			logging.Info("Orphan sweep completed", zap.Int("removed", count))
			orphansSweptCounter.Add(float64(count))
		}
	})
	cronScheduler.Start()

	logging.Info("Starting server", zap.String("port", cfg.HTTPPort))
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logging.Fatal("Failed to run server", zap.Error(err))
	}
}

// readFormFile liest die hochgeladene Datei vollständig in den Speicher.
func readFormFile(c *gin.Context, field string, maxBytes int64) (string, []byte, error) {
	fileHeader, err := c.FormFile(field)
	if err != nil {
		return "", nil, fmt.Errorf("%s is required", field)
	}
	if maxBytes > 0 && fileHeader.Size > maxBytes {
		return "", nil, fmt.Errorf("file exceeds upload limit of %d bytes", maxBytes)
	}
	src, err := fileHeader.Open()
	if err != nil {
		return "", nil, err
	}
	defer src.Close()
	data, err := io.ReadAll(src)
	if err != nil {
		return "", nil, err
	}
	return filepath.Base(fileHeader.Filename), data, nil
}

// setupSubmissionRoutes konfiguriert den atomaren Submission-Endpoint.
func setupSubmissionRoutes(router *gin.Engine, svc *services.SubmissionService, log *zap.Logger) {
	rg := router.Group("/complete")

	// POST - Artikel, Experiment, Links und Messdatei in einer Transaktion
	rg.POST("/submit", func(c *gin.Context) {
		filename, data, err := readFormFile(c, "file", svc.Config.MaxUploadMB<<20)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		machines, err := services.ParseMachineEntries(c.DefaultPostForm("machines", "[]"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		detectors, err := services.ParseDetectorEntries(c.DefaultPostForm("detectors", "[]"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		phantoms, err := services.ParsePhantomEntries(c.DefaultPostForm("phantoms", "[]"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		columns, err := services.ParseColumnMappings(c.DefaultPostForm("columnMapping", "[]"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		in := services.SubmissionInput{
			Title:           c.PostForm("title"),
			Authors:         c.PostForm("authors"),
			DOI:             c.PostForm("doi"),
			Description:     c.PostForm("experience_description"),
			Machines:        machines,
			Detectors:       detectors,
			Phantoms:        phantoms,
			FileName:        filename,
			FileData:        data,
			DataType:        c.PostForm("data_type"),
			DataDescription: c.PostForm("data_description"),
			Columns:         columns,
		}

		result, err := svc.Submit(c.Request.Context(), in)
		if err != nil {
			submissionFailures.Inc()
			status := statusForError(err)
			if status == http.StatusInternalServerError {
				log.Error("Complete submission failed", zap.Error(err))
				c.JSON(status, gin.H{"error": "database error"})
				return
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}

		submissionsCounter.Inc()
		c.JSON(http.StatusCreated, result)
	})
}

func setupArticleRoutes(router *gin.Engine, db *gorm.DB, log *zap.Logger) {
	rg := router.Group("/articles")

	rg.POST("/", func(c *gin.Context) {
		var req struct {
			Title   string `json:"title" binding:"required"`
			Authors string `json:"authors"`
			DOI     string `json:"doi"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body (title required)"})
			return
		}

		// DOI darf nicht doppelt vergeben werden
		if req.DOI != "" {
			var count int64
			if err := db.Model(&models.Article{}).Where("doi = ?", req.DOI).Count(&count).Error; err != nil {
				log.Error("DB error checking DOI", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
				return
			}
			if count > 0 {
				c.JSON(http.StatusConflict, gin.H{"error": fmt.Sprintf("Article already exists (DOI: %s)", req.DOI)})
				return
			}
		}

		article := models.Article{Title: req.Title, Authors: req.Authors}
		if req.DOI != "" {
			article.DOI = &req.DOI
		}
		if err := db.Create(&article).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				c.JSON(http.StatusConflict, gin.H{"error": "Article already exists"})
				return
			}
			log.Error("Failed to create article", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create article"})
			return
		}
		c.JSON(http.StatusCreated, article)
	})

	rg.GET("/", func(c *gin.Context) {
		var articles []models.Article
		if err := db.Find(&articles).Error; err != nil {
			log.Error("Database query for articles failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, articles)
	})

	rg.GET("/:id", func(c *gin.Context) {
		var article models.Article
		if err := db.First(&article, c.Param("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Article not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, article)
	})

	// GET - Artikel mit allen Experimenten und deren Zählern
	rg.GET("/:id/experiences", func(c *gin.Context) {
		var article models.Article
		if err := db.First(&article, c.Param("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Article not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		var experiences []models.Experience
		if err := db.Where("article_id = ?", article.ID).Find(&experiences).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		summaries := make([]gin.H, 0, len(experiences))
		for _, exp := range experiences {
			var machineCount, detectorCount, phantomCount, dataCount int64
			db.Model(&models.ExperienceMachine{}).Where("experience_id = ?", exp.ID).Count(&machineCount)
			db.Model(&models.ExperienceDetector{}).Where("experience_id = ?", exp.ID).Count(&detectorCount)
			db.Model(&models.ExperiencePhantom{}).Where("experience_id = ?", exp.ID).Count(&phantomCount)
			db.Model(&models.DataRecord{}).Where("experience_id = ?", exp.ID).Count(&dataCount)
			summaries = append(summaries, gin.H{
				"experience_id":  exp.ID,
				"description":    exp.Description,
				"machine_count":  machineCount,
				"detector_count": detectorCount,
				"phantom_count":  phantomCount,
				"data_count":     dataCount,
			})
		}

		c.JSON(http.StatusOK, gin.H{
			"article_id":  article.ID,
			"title":       article.Title,
			"authors":     article.Authors,
			"doi":         article.DOI,
			"experiences": summaries,
		})
	})
}

func setupExperienceRoutes(router *gin.Engine, db *gorm.DB, store *storage.UploadStore, log *zap.Logger) {
	rg := router.Group("/experiences")

	rg.POST("/", func(c *gin.Context) {
		var req struct {
			Description string `json:"description" binding:"required"`
			ArticleID   *uint  `json:"article_id"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body (description required)"})
			return
		}

		// Referenzierter Artikel muss existieren
		if req.ArticleID != nil {
			var article models.Article
			if err := db.First(&article, *req.ArticleID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					c.JSON(http.StatusNotFound, gin.H{"error": "Article not found"})
					return
				}
				c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
				return
			}
		}

		experience := models.Experience{Description: req.Description, ArticleID: req.ArticleID}
		if err := db.Create(&experience).Error; err != nil {
			log.Error("Failed to create experience", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create experience"})
			return
		}
		c.JSON(http.StatusCreated, experience)
	})

	rg.GET("/", func(c *gin.Context) {
		var experiences []models.Experience
		if err := db.Find(&experiences).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, experiences)
	})

	// GET - Zusammenfassung mit aufgelösten Referenzgeräten
	rg.GET("/:id/summary", func(c *gin.Context) {
		var experience models.Experience
		err := db.
			Preload("Machines.Machine").
			Preload("Detectors.Detector").
			Preload("Phantoms.Phantom").
			Preload("DataRecords.ColumnMappings").
			First(&experience, c.Param("id")).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Experience not found"})
				return
			}
			log.Error("DB error loading experience summary", zap.String("id", c.Param("id")), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		machines := make([]gin.H, 0, len(experience.Machines))
		for _, m := range experience.Machines {
			machines = append(machines, gin.H{
				"manufacturer": m.Machine.Manufacturer,
				"model":        m.Machine.Model,
				"machine_type": m.Machine.MachineType,
				"energy":       m.Energy,
				"collimation":  m.Collimation,
				"settings":     m.Settings,
			})
		}
		detectors := make([]gin.H, 0, len(experience.Detectors))
		for _, d := range experience.Detectors {
			detectors = append(detectors, gin.H{
				"detector_type": d.Detector.DetectorType,
				"model":         d.Detector.Model,
				"manufacturer":  d.Detector.Manufacturer,
				"position":      d.Position,
				"depth":         d.Depth,
				"orientation":   d.Orientation,
			})
		}
		phantoms := make([]gin.H, 0, len(experience.Phantoms))
		for _, p := range experience.Phantoms {
			phantoms = append(phantoms, gin.H{
				"name":         p.Phantom.Name,
				"phantom_type": p.Phantom.PhantomType,
				"dimensions":   p.Phantom.Dimensions,
				"material":     p.Phantom.Material,
				"position":     p.Position,
				"orientation":  p.Orientation,
			})
		}
		dataFiles := make([]gin.H, 0, len(experience.DataRecords))
		for _, r := range experience.DataRecords {
			dataFiles = append(dataFiles, gin.H{
				"data_id":         r.ID,
				"data_type":       r.DataType,
				"file_format":     r.FileFormat,
				"file_path":       r.FilePath,
				"description":     r.Description,
				"column_mappings": r.ColumnMappings,
			})
		}

		c.JSON(http.StatusOK, gin.H{
			"description": experience.Description,
			"article_id":  experience.ArticleID,
			"machines":    machines,
			"detectors":   detectors,
			"phantoms":    phantoms,
			"data":        dataFiles,
		})
	})

	// DELETE - kaskadiert auf Links, Datenzeilen und Spalten; Dateien werden
	// best-effort mit entfernt
	rg.DELETE("/:id", func(c *gin.Context) {
		var experience models.Experience
		if err := db.First(&experience, c.Param("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Experience not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		var paths []string
		if err := db.Model(&models.DataRecord{}).Where("experience_id = ?", experience.ID).Pluck("file_path", &paths).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		if err := db.Delete(&experience).Error; err != nil {
			log.Error("Failed to delete experience", zap.Uint("id", experience.ID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete experience"})
			return
		}

		for _, path := range paths {
			if err := store.Remove(path); err != nil {
				log.Warn("Failed to remove data file of deleted experience",
					zap.String("path", path), zap.Error(err))
			}
		}

		c.JSON(http.StatusOK, gin.H{"message": "experience deleted", "removed_files": len(paths)})
	})
}

func setupMachineRoutes(router *gin.Engine, db *gorm.DB, log *zap.Logger) {
	rg := router.Group("/machines")

	rg.POST("/", func(c *gin.Context) {
		var req struct {
			Manufacturer string `json:"manufacturer"`
			Model        string `json:"model" binding:"required"`
			MachineType  string `json:"machine_type"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body (model required)"})
			return
		}

		machine := models.Machine{Manufacturer: req.Manufacturer, Model: req.Model, MachineType: req.MachineType}
		if err := db.Create(&machine).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				c.JSON(http.StatusConflict, gin.H{"error": "Machine already exists"})
				return
			}
			log.Error("Failed to create machine", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create machine"})
			return
		}
		c.JSON(http.StatusCreated, machine)
	})

	rg.GET("/", func(c *gin.Context) {
		var machines []models.Machine
		if err := db.Find(&machines).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, machines)
	})

	// GET - Distinct-Werte für Autocomplete im Formular
	rg.GET("/lookup/:field", func(c *gin.Context) {
		column := map[string]string{
			"manufacturers": "manufacturer",
			"models":        "model",
			"types":         "machine_type",
		}[c.Param("field")]
		if column == "" {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown lookup field"})
			return
		}
		var values []string
		if err := db.Model(&models.Machine{}).Distinct().Where(column+" <> ''").Order(column).Pluck(column, &values).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, values)
	})
}

func setupDetectorRoutes(router *gin.Engine, db *gorm.DB, log *zap.Logger) {
	rg := router.Group("/detectors")

	rg.POST("/", func(c *gin.Context) {
		var req struct {
			DetectorType string `json:"detector_type" binding:"required"`
			Model        string `json:"model"`
			Manufacturer string `json:"manufacturer"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body (detector_type required)"})
			return
		}

		detector := models.Detector{DetectorType: req.DetectorType, Model: req.Model, Manufacturer: req.Manufacturer}
		if err := db.Create(&detector).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				c.JSON(http.StatusConflict, gin.H{"error": "Detector already exists"})
				return
			}
			log.Error("Failed to create detector", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create detector"})
			return
		}
		c.JSON(http.StatusCreated, detector)
	})

	rg.GET("/", func(c *gin.Context) {
		var detectors []models.Detector
		if err := db.Find(&detectors).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, detectors)
	})

	rg.GET("/lookup/:field", func(c *gin.Context) {
		column := map[string]string{
			"types":         "detector_type",
			"models":        "model",
			"manufacturers": "manufacturer",
		}[c.Param("field")]
		if column == "" {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown lookup field"})
			return
		}
		var values []string
		if err := db.Model(&models.Detector{}).Distinct().Where(column+" <> ''").Order(column).Pluck(column, &values).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, values)
	})
}

func setupPhantomRoutes(router *gin.Engine, db *gorm.DB, log *zap.Logger) {
	rg := router.Group("/phantoms")

	rg.POST("/", func(c *gin.Context) {
		var req struct {
			Name        string `json:"name" binding:"required"`
			PhantomType string `json:"phantom_type"`
			Dimensions  string `json:"dimensions"`
			Material    string `json:"material"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body (name required)"})
			return
		}
		if err := services.ValidateDimensions(req.Dimensions); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		phantom := models.Phantom{Name: req.Name, PhantomType: req.PhantomType, Dimensions: req.Dimensions, Material: req.Material}
		if err := db.Create(&phantom).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				c.JSON(http.StatusConflict, gin.H{"error": "Phantom already exists"})
				return
			}
			log.Error("Failed to create phantom", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create phantom"})
			return
		}
		c.JSON(http.StatusCreated, phantom)
	})

	rg.GET("/", func(c *gin.Context) {
		var phantoms []models.Phantom
		if err := db.Find(&phantoms).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, phantoms)
	})

	rg.GET("/lookup/:field", func(c *gin.Context) {
		column := map[string]string{
			"names": "name",
			"types": "phantom_type",
		}[c.Param("field")]
		if column == "" {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown lookup field"})
			return
		}
		var values []string
		if err := db.Model(&models.Phantom{}).Distinct().Where(column+" <> ''").Order(column).Pluck(column, &values).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, values)
	})
}

// setupLinkRoutes konfiguriert das Anhängen einzelner Referenzgeräte an ein
// bestehendes Experiment (außerhalb der atomaren Submission).
func setupLinkRoutes(router *gin.Engine, db *gorm.DB, log *zap.Logger) {
	rg := router.Group("/experiences")

	loadExperience := func(c *gin.Context) (*models.Experience, bool) {
		var experience models.Experience
		if err := db.First(&experience, c.Param("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Experience not found"})
				return nil, false
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return nil, false
		}
		return &experience, true
	}

	rg.POST("/:id/machines", func(c *gin.Context) {
		experience, ok := loadExperience(c)
		if !ok {
			return
		}
		var req struct {
			MachineID   uint   `json:"machine_id" binding:"required"`
			Energy      string `json:"energy"`
			Collimation string `json:"collimation"`
			Settings    string `json:"settings"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body (machine_id required)"})
			return
		}
		var machine models.Machine
		if err := db.First(&machine, req.MachineID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Machine not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		link := models.ExperienceMachine{
			ExperienceID: experience.ID,
			MachineID:    machine.ID,
			Energy:       req.Energy,
			Collimation:  req.Collimation,
			Settings:     req.Settings,
		}
		if err := db.Omit(clause.Associations).Create(&link).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				c.JSON(http.StatusConflict, gin.H{"error": "Machine already linked to this experience"})
				return
			}
			log.Error("Failed to link machine", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusCreated, link)
	})

	rg.POST("/:id/detectors", func(c *gin.Context) {
		experience, ok := loadExperience(c)
		if !ok {
			return
		}
		var req struct {
			DetectorID  uint   `json:"detector_id" binding:"required"`
			Position    string `json:"position"`
			Depth       string `json:"depth"`
			Orientation string `json:"orientation"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body (detector_id required)"})
			return
		}
		var detector models.Detector
		if err := db.First(&detector, req.DetectorID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Detector not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		link := models.ExperienceDetector{
			ExperienceID: experience.ID,
			DetectorID:   detector.ID,
			Position:     req.Position,
			Depth:        req.Depth,
			Orientation:  req.Orientation,
		}
		if err := db.Omit(clause.Associations).Create(&link).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				c.JSON(http.StatusConflict, gin.H{"error": "Detector already linked to this experience"})
				return
			}
			log.Error("Failed to link detector", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusCreated, link)
	})

	rg.POST("/:id/phantoms", func(c *gin.Context) {
		experience, ok := loadExperience(c)
		if !ok {
			return
		}
		var req struct {
			PhantomID   uint   `json:"phantom_id" binding:"required"`
			Position    string `json:"position"`
			Orientation string `json:"orientation"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body (phantom_id required)"})
			return
		}
		var phantom models.Phantom
		if err := db.First(&phantom, req.PhantomID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Phantom not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		link := models.ExperiencePhantom{
			ExperienceID: experience.ID,
			PhantomID:    phantom.ID,
			Position:     req.Position,
			Orientation:  req.Orientation,
		}
		if err := db.Omit(clause.Associations).Create(&link).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				c.JSON(http.StatusConflict, gin.H{"error": "Phantom already linked to this experience"})
				return
			}
			log.Error("Failed to link phantom", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusCreated, link)
	})
}

func setupDataRoutes(router *gin.Engine, svc *services.SubmissionService, db *gorm.DB, log *zap.Logger) {
	rg := router.Group("/data")

	// POST - einzelne Messdatei an ein bestehendes Experiment hängen
	rg.POST("/upload/:experience_id", func(c *gin.Context) {
		experienceID, err := strconv.ParseUint(c.Param("experience_id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid experience id"})
			return
		}

		filename, data, err := readFormFile(c, "file", svc.Config.MaxUploadMB<<20)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		columns, err := services.ParseColumnMappings(c.DefaultPostForm("columnMapping", "[]"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		record, err := svc.IngestData(c.Request.Context(), uint(experienceID), filename, data,
			c.PostForm("data_type"), c.PostForm("description"), columns)
		if err != nil {
			status := statusForError(err)
			if status == http.StatusInternalServerError {
				log.Error("Data ingest failed", zap.Error(err))
				c.JSON(status, gin.H{"error": "database error"})
				return
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, record)
	})

	rg.GET("/", func(c *gin.Context) {
		var records []models.DataRecord
		if err := db.Preload("ColumnMappings").Find(&records).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, records)
	})
}
