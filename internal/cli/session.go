package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)

	loginCmd.Flags().String("name", "", "Your display name")
	loginCmd.Flags().String("email", "", "Your email (doubles as identity)")
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Start a session for audit attribution",
	Long: `Start a local session. There are no passwords — the tool is local
and trust based; logging in only attributes audit entries to you
instead of "System".`,
	RunE: runLogin,
}

func runLogin(cmd *cobra.Command, args []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	name, _ := cmd.Flags().GetString("name")
	email, _ := cmd.Flags().GetString("email")

	user, err := app.Settings.Login(name, email)
	if err != nil {
		return err
	}
	fmt.Printf("Logged in as %s (%s)\n", user.Name, user.Role)
	return nil
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the current session",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp()
		if err != nil {
			return err
		}
		defer app.Close()
		if err := app.Settings.Logout(); err != nil {
			return err
		}
		fmt.Println("Logged out")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current session user",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp()
		if err != nil {
			return err
		}
		defer app.Close()
		user := app.Settings.CurrentUser()
		if user == nil {
			fmt.Println("Not logged in — actions are attributed to System")
			return nil
		}
		fmt.Printf("%s <%s> (%s)\n", user.Name, user.Email, user.Role)
		return nil
	},
}
