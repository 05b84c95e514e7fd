package main

import (
	"flag"
	stdlog "log"

	"go.uber.org/zap"

	"github.com/strata3d/layerpaint/config"
	"github.com/strata3d/layerpaint/export"
	"github.com/strata3d/layerpaint/layers"
	"github.com/strata3d/layerpaint/logger"
	"github.com/strata3d/layerpaint/mesh"
	"github.com/strata3d/layerpaint/utils"
	"github.com/strata3d/layerpaint/web"
)

func main() {
	var addr, projectPath, palettePath, outDir, webPath, logLevel, logFile, exportFile string
	var dump, demo bool
	flag.StringVar(&addr, "i", ":8000", "Address of server")
	flag.StringVar(&projectPath, "project", "", "Path to project file (json or yaml), empty for defaults")
	flag.StringVar(&palettePath, "palettes", "", "Path to palette library file")
	flag.StringVar(&outDir, "out", ".", "Directory export artifacts are written to")
	flag.StringVar(&webPath, "web", "web", "Path to static panel files")
	flag.StringVar(&logLevel, "loglevel", "info", "debug, info, warn or error")
	flag.StringVar(&logFile, "logfile", "", "Also log json to this file, rotated")
	flag.StringVar(&exportFile, "export", "", "Run a one-shot export to this file and exit")
	flag.BoolVar(&dump, "dump", false, "Dump the loaded project and scene, then exit")
	flag.BoolVar(&demo, "demo", false, "Seed the scene with demo geometry")
	flag.Parse()

	log, err := logger.New(logLevel, logFile)
	if err != nil {
		stdlog.Fatal(err)
	}
	defer log.Sync()

	project := config.DefaultProject()
	if projectPath != "" {
		project, err = config.Load(projectPath)
		if err != nil {
			log.Fatal("project load failed", zap.Error(err))
		}
	}
	if palettePath != "" {
		if _, err := config.LoadPalettes(palettePath); err != nil {
			log.Fatal("palette load failed", zap.Error(err))
		}
	}

	store := layers.NewStore(project)
	scene := mesh.NewScene()
	if demo {
		seedDemoScene(store, scene)
	}

	if dump {
		utils.Dump(project)
		for _, m := range scene.Meshes() {
			utils.Dump(m.Name, m.ColorSetNames(), m.UVSetNames())
		}
		return
	}

	if exportFile != "" {
		baker := export.NewBaker(store, scene, log)
		result, err := baker.Run(flag.Args())
		if err != nil {
			log.Fatal("export failed", zap.Error(err))
		}
		if err := export.WriteGLTF(exportFile, result); err != nil {
			log.Fatal("export write failed", zap.Error(err))
		}
		log.Info("export written",
			zap.String("file", exportFile),
			zap.String("run", result.RunID.String()))
		return
	}

	if err := web.StartServer(addr, store, scene, webPath, outDir, log); err != nil {
		log.Fatal("web server failed", zap.Error(err))
	}
}

// seedDemoScene drops a few primitives with painted layers into the
// scene so the panel and export have something to chew on without a
// host import.
func seedDemoScene(store *layers.Store, scene *mesh.Scene) {
	names := make(utils.RandomNameGenerator)
	for i, build := range []func(string) *mesh.Mesh{
		func(n string) *mesh.Mesh { return mesh.NewCube(n, 2) },
		func(n string) *mesh.Mesh { return mesh.NewCube(n, 1) },
		func(n string) *mesh.Mesh { return mesh.NewPlane(n, 4, 4) },
	} {
		m := build(names.RandomName())
		m.Translate[0] = float32(i) * 3
		store.EnsureLayers(m)
		store.ColorFill(m, "layer2", utils.ColorFloat{0.8, 0.2, 0.1, 1}, false, nil)
		scene.AddMesh(m)
	}
}
