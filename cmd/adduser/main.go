// adduser 在终端创建账本用户
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"ledger/apperr"
	"ledger/config"
	"ledger/database"
	"ledger/service"

	"golang.org/x/term"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("adduser", flag.ContinueOnError)
	fs.SetOutput(stderr)

	email := fs.String("email", "", "邮箱")
	name := fs.String("name", "", "姓名，默认取邮箱前缀")
	passwordFlag := fs.String("password", "", "密码，不填时交互输入")
	configFile := fs.String("c", "", "外部配置文件路径（可选）")
	dbPath := fs.String("db", "", "sqlite 文件路径，指定后忽略配置中的数据库")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *email == "" {
		fmt.Fprintln(stdout, "用法: adduser -email <email> [-name <name>] [-password <password>] [-c <config>] [-db <sqlite_path>]")
		fs.PrintDefaults()
		return errors.New("缺少参数: email")
	}
	if *name == "" {
		*name = strings.SplitN(*email, "@", 2)[0]
	}

	password := *passwordFlag
	if password == "" {
		fmt.Fprint(stdout, "密码: ")
		var err error
		password, err = readPassword(stdin)
		if err != nil {
			return fmt.Errorf("读取密码失败: %w", err)
		}
		fmt.Fprintln(stdout)
	}
	if strings.TrimSpace(password) == "" {
		return errors.New("密码不能为空")
	}

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		return err
	}
	if *dbPath != "" {
		cfg.Database.Driver = "sqlite"
		cfg.Database.Path = *dbPath
	}
	cfg.Server.Mode = "release"

	db, err := database.Open(cfg)
	if err != nil {
		return fmt.Errorf("打开数据库失败: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("打开数据库失败: %w", err)
	}

	auth := service.NewAuthService(database.NewStore(db), nil)
	user, err := auth.Register(context.Background(), service.RegisterInput{
		FullName: *name,
		Email:    *email,
		Password: password,
	})
	if errors.Is(err, apperr.ErrConflict) {
		return fmt.Errorf("用户 %s 已存在", *email)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "用户 %s 创建成功，ID %d\n", user.Email, user.ID)
	return nil
}

func readPassword(stdin io.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		bytePassword, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(bytePassword), nil
	}

	// 非终端输入（管道、测试）
	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
