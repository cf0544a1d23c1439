package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/akbarov/facegate/internal/api"
	"github.com/akbarov/facegate/internal/capture"
	"github.com/akbarov/facegate/internal/flow"
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a new user account",
	Long: `Register a new user account on the attendance service. The account
is created first; a face sample is then captured and attached unless
--skip-face is given. A failed face capture leaves the account in place,
so registration can be finished later with 'register face'.

Example:
  facegate register --username gulnora --email g@example.com --full-name "Gulnora Karimova"
  facegate register --username gulnora --email g@example.com --full-name "Gulnora Karimova" --role admin`,
	RunE: runRegister,
}

var registerFaceCmd = &cobra.Command{
	Use:   "face <user-id>",
	Short: "Enroll face samples for an existing account",
	Long: `Capture and enroll a face sample for an existing account. With --dir,
every image in the directory is enrolled as a separate sample.

Example:
  facegate register face 7c9e6679-7425-40de-944b-e07fc1f90ae7
  facegate register face 7c9e6679-7425-40de-944b-e07fc1f90ae7 --dir ./samples`,
	Args: cobra.ExactArgs(1),
	RunE: runRegisterFace,
}

func init() {
	rootCmd.AddCommand(registerCmd)
	registerCmd.AddCommand(registerFaceCmd)

	registerCmd.Flags().String("username", "", "Username for the new account")
	registerCmd.Flags().String("email", "", "Email address")
	registerCmd.Flags().String("full-name", "", "Full display name")
	registerCmd.Flags().String("password", "", "Initial password")
	registerCmd.Flags().String("role", "", "Account role, user or admin (default user)")
	registerCmd.Flags().Bool("skip-face", false, "Create the account without a face sample")

	registerFaceCmd.Flags().String("dir", "", "Directory of face images to enroll in bulk")
	registerFaceCmd.Flags().Int("workers", 4, "Concurrent enrollments for --dir")
}

func runRegister(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, manager, err := newSessionManager(cfg)
	if err != nil {
		return err
	}
	if _, err := requireSession(cmd.Context(), manager); err != nil {
		return err
	}

	reg := flow.NewRegistration(client)

	user := api.NewUser{
		Username: mustGetString(cmd, "username"),
		Email:    mustGetString(cmd, "email"),
		FullName: mustGetString(cmd, "full-name"),
		Password: mustGetString(cmd, "password"),
		Role:     mustGetString(cmd, "role"),
	}

	if err := reg.SubmitDetails(cmd.Context(), user); err != nil {
		return fmt.Errorf("registration failed: %w", discardRejectedSession(manager, err))
	}
	created := reg.Created()
	fmt.Printf("Created account %s (%s)\n", created.Username, created.ID)

	if mustGetBool(cmd, "skip-face") {
		if err := reg.Skip(); err != nil {
			return err
		}
		fmt.Println("Face enrollment skipped; run 'facegate register face' later")
		return nil
	}

	img, err := captureFrame(cmd.Context(), cfg)
	if err != nil {
		fmt.Printf("Face capture failed: %v\n", err)
		fmt.Printf("The account was created; enroll later with 'facegate register face %s'\n", created.ID)
		return nil
	}

	if err := reg.AttachFace(cmd.Context(), img); err != nil {
		fmt.Printf("Face enrollment failed: %v\n", err)
		fmt.Printf("The account was created; enroll later with 'facegate register face %s'\n", created.ID)
		return nil
	}

	fmt.Println("Face sample enrolled")
	return nil
}

func runRegisterFace(cmd *cobra.Command, args []string) error {
	userID := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, manager, err := newSessionManager(cfg)
	if err != nil {
		return err
	}
	if _, err := requireSession(cmd.Context(), manager); err != nil {
		return err
	}

	dir := mustGetString(cmd, "dir")
	if dir == "" {
		// Single capture from the configured device.
		img, err := captureFrame(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		result, err := client.RegisterFace(cmd.Context(), userID, img.DataURL())
		if err != nil {
			return fmt.Errorf("face enrollment failed: %w", discardRejectedSession(manager, err))
		}
		fmt.Printf("%s (%d samples total)\n", result.Message, result.TotalFaces)
		return nil
	}

	return enrollDirectory(cmd, client, userID, dir)
}

// enrollDirectory enrolls every image in a directory as a face sample,
// a few at a time.
func enrollDirectory(cmd *cobra.Command, client *api.Client, userID, dir string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("cannot read folder %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !capture.IsImageFile(entry.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	if len(paths) == 0 {
		fmt.Println("No image files found in the specified folder.")
		return nil
	}

	fmt.Printf("Enrolling %d image(s) for user %s\n\n", len(paths), userID)

	bar := progressbar.NewOptions(len(paths),
		progressbar.OptionSetDescription("Enrolling"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("images"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)

	workers := mustGetInt(cmd, "workers")
	if workers < 1 {
		workers = 1
	}
	semaphore := make(chan struct{}, workers)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var failures []string
	enrolled := 0

	for _, path := range paths {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(path string) {
			defer wg.Done()
			defer func() { <-semaphore }()

			name := filepath.Base(path)

			data, err := os.ReadFile(path)
			if err != nil {
				mu.Lock()
				failures = append(failures, fmt.Sprintf("%s: %v", name, err))
				mu.Unlock()
				bar.Add(1)
				return
			}

			frame, err := capture.EncodeFrame(data, cfg.Capture.MaxSize)
			if err != nil {
				mu.Lock()
				failures = append(failures, fmt.Sprintf("%s: %v", name, err))
				mu.Unlock()
				bar.Add(1)
				return
			}

			img := &capture.Image{Data: frame}
			if _, err := client.RegisterFace(cmd.Context(), userID, img.DataURL()); err != nil {
				mu.Lock()
				failures = append(failures, fmt.Sprintf("%s: %v", name, err))
				mu.Unlock()
				bar.Add(1)
				return
			}

			mu.Lock()
			enrolled++
			mu.Unlock()
			bar.Add(1)
		}(path)
	}
	wg.Wait()
	fmt.Println()

	for _, failure := range failures {
		fmt.Printf("Failed: %s\n", failure)
	}
	fmt.Printf("Enrolled %d of %d image(s)\n", enrolled, len(paths))

	if enrolled == 0 {
		return fmt.Errorf("no images were enrolled")
	}
	return nil
}
